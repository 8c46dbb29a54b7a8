package chathub

import "messenger/backend/internal/models"

// Client is one live signaling connection. The manager owns its lifecycle:
// it is the only writer to the send channel and the only caller of Close.
type Client interface {
	// GetUserID returns the authenticated user behind the connection.
	GetUserID() string

	// GetSendChannel returns the channel the manager pushes outbound frames to.
	GetSendChannel() chan<- models.Frame

	// Run starts the client's read and write pumps.
	Run()
	// Close stops the write pump; the transport closes behind it.
	Close()
}

// Inbound is a raw frame read from a client, in transport order.
type Inbound struct {
	Client Client
	Data   []byte
}
