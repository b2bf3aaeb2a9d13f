package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"jobhunter/internal/domain"
	"jobhunter/internal/domain/models/agent"
	svc "jobhunter/internal/domain/services/agent"
)

// Emitter is the single writer of a session's event stream.
//
// Events are numbered in emission order. After a terminal event (complete or
// error) the stream is sealed and every further Emit returns ErrStreamClosed.
// A sink failure also seals the stream: nothing is retried or skipped.
type Emitter struct {
	sink      svc.EventSink
	sessionID string
	seq       int
	sealed    bool
	failure   error
	text      strings.Builder
}

// NewEmitter creates an emitter writing to sink.
func NewEmitter(sessionID string, sink svc.EventSink) *Emitter {
	return &Emitter{sink: sink, sessionID: sessionID}
}

// Emit delivers one event.
func (e *Emitter) Emit(ctx context.Context, event agent.StreamEvent) error {
	if e.failure != nil {
		return e.failure
	}
	if e.sealed {
		return fmt.Errorf("%w: cannot emit %s", domain.ErrStreamClosed, event.Type)
	}

	e.seq++
	event.Seq = e.seq
	if err := e.sink.Send(ctx, event); err != nil {
		e.sealed = true
		e.failure = fmt.Errorf("%w: %s: %w", domain.ErrEventDelivery, event.Type, err)
		return e.failure
	}

	if event.Type.IsTerminal() {
		e.sealed = true
	}
	if delta, ok := event.Payload.(*agent.TextDeltaEvent); ok {
		e.text.WriteString(delta.Content)
	}
	return nil
}

// Text emits an incremental chunk of assistant text. Empty chunks are skipped.
func (e *Emitter) Text(ctx context.Context, content string) error {
	if content == "" {
		return nil
	}
	return e.Emit(ctx, agent.NewTextDeltaEvent(content))
}

// Complete emits the completion event carrying every text chunk emitted so far.
func (e *Emitter) Complete(ctx context.Context, decision agent.TerminationDecision) error {
	return e.Emit(ctx, agent.NewCompletionEvent(e.sessionID, decision, e.text.String()))
}

// Fail emits the terminal error event. It is a no-op when the transport has
// already failed, since there is nobody left to tell.
func (e *Emitter) Fail(ctx context.Context, message string) error {
	if e.failure != nil {
		return e.failure
	}
	return e.Emit(ctx, agent.NewErrorEvent(e.sessionID, message))
}

// ToolStarting implements tools.Notifier
func (e *Emitter) ToolStarting(ctx context.Context, call agent.ToolCall) error {
	return e.Emit(ctx, agent.NewToolStartEvent(call))
}

// ToolTransition implements tools.Notifier
func (e *Emitter) ToolTransition(ctx context.Context, prev, next agent.ToolCall) error {
	return e.Emit(ctx, agent.NewToolTransitionEvent(prev, next))
}

// ToolFinished implements tools.Notifier
func (e *Emitter) ToolFinished(ctx context.Context, inv *agent.ToolInvocation) error {
	return e.Emit(ctx, agent.NewToolResultEvent(inv))
}

// Transcript returns the concatenation of all emitted text chunks.
func (e *Emitter) Transcript() string {
	return e.text.String()
}

// Seq returns the sequence number of the last emitted event.
func (e *Emitter) Seq() int {
	return e.seq
}

// Sealed reports whether the stream accepts no further events.
func (e *Emitter) Sealed() bool {
	return e.sealed
}

// Delivered reports whether the transport has accepted every event so far.
func (e *Emitter) Delivered() bool {
	return e.failure == nil
}
