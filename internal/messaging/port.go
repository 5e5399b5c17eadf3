package messaging

import (
	"context"
	"errors"
)

// ErrPortClosed is returned by Send after Close.
var ErrPortClosed = errors.New("port is closed")

// Port is one end of a bidirectional, origin-checked packet channel.
// Received messages are already decoded and validated; anything else was
// dropped by the port.
type Port interface {
	Send(ctx context.Context, msg Message) error
	Receive() <-chan Message
	Done() <-chan struct{}
	Close() error
}

// Direction labels for packet metrics.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)
