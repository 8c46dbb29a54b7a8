package models

import "encoding/json"

// Frame is the envelope of every WebSocket message in both directions.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	EventCallOffer  = "call:offer"
	EventCallAnswer = "call:answer"
	EventCallIce    = "call:ice"
	EventCallHangup = "call:hangup"
)
