package agent

import (
	"context"

	"jobhunter/internal/domain/models/agent"
)

// EventSink is the transport a session's event stream is written to.
// There is exactly one sink per session. Send must return an error when the
// event could not be delivered; it must never drop events silently.
type EventSink interface {
	Send(ctx context.Context, event agent.StreamEvent) error
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, event agent.StreamEvent) error

// Send implements EventSink
func (f EventSinkFunc) Send(ctx context.Context, event agent.StreamEvent) error {
	return f(ctx, event)
}
