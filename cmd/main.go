package main

import (
	"messenger/backend/internal/app"

	"go.uber.org/fx"
)

func main() {
	fx.New(app.CreateApp()).Run()
}
