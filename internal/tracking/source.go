package tracking

import (
	"context"
	"errors"
)

var (
	// ErrSubscriptionFailed is returned by sources that could not attach to the OS stream.
	ErrSubscriptionFailed = errors.New("input event subscription failed")

	// ErrSubscriptionClosed is returned by sources whose OS stream ended on its own.
	ErrSubscriptionClosed = errors.New("input event subscription closed")
)

// EventSource delivers OS input events. Stream blocks, calling emit once per
// event in delivery order, until ctx is done or the subscription fails.
type EventSource interface {
	Stream(ctx context.Context, emit func(Event)) error
}

// EventSourceFunc adapts a function literal to the EventSource interface.
type EventSourceFunc func(ctx context.Context, emit func(Event)) error

// Stream calls the underlying function.
func (f EventSourceFunc) Stream(ctx context.Context, emit func(Event)) error {
	return f(ctx, emit)
}
