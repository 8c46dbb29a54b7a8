package chathub

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module(
	"chathub",
	fx.Provide(NewManagerService),
	fx.Invoke(registerLifecycle),
)

// registerLifecycle запускає цикл реле і чекає його завершення при зупинці
func registerLifecycle(lc fx.Lifecycle, hub *ManagerService) {
	var cancel context.CancelFunc

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			go hub.Run(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			select {
			case <-hub.Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
