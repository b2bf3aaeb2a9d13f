package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"jobhunter/internal/domain/models/agent"
)

// ErrStreamingUnsupported is returned when the ResponseWriter cannot flush.
var ErrStreamingUnsupported = errors.New("streaming not supported")

// Writer is the single subscriber of a session's event stream. It implements
// the EventSink and KeepAliveWriter interfaces; both write under one lock so
// keep-alive comments never interleave with an event.
//
// Response headers are committed lazily with the first write, which lets the
// handler still answer with a problem response when the run is rejected
// before any event.
type Writer struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	withIDs bool
	started bool
	closed  bool
}

// NewWriter creates an SSE writer. withIDs adds an "id:" line carrying the
// event sequence number.
func NewWriter(w http.ResponseWriter, withIDs bool) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &Writer{w: w, flusher: flusher, withIDs: withIDs}, nil
}

// Send implements EventSink. Each event is one "data:" line followed by a
// blank line.
func (s *Writer) Send(ctx context.Context, event agent.StreamEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("sse writer closed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.start()

	if s.withIDs {
		if _, err := fmt.Fprintf(s.w, "id: %d\n", event.Seq); err != nil {
			return fmt.Errorf("write event id: %w", err)
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// WriteKeepAlive implements KeepAliveWriter. It writes an SSE comment; nothing
// is written before the stream has started.
func (s *Writer) WriteKeepAlive() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("sse writer closed")
	}
	if !s.started {
		return nil
	}
	if _, err := fmt.Fprint(s.w, ": keepalive\n\n"); err != nil {
		return fmt.Errorf("write keepalive failed: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// Started reports whether any byte of the stream has been written.
func (s *Writer) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Close stops all further writes. The handler calls it before returning so
// a late keep-alive never touches a finished ResponseWriter.
func (s *Writer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// start commits the SSE headers. Callers hold mu.
func (s *Writer) start() {
	if s.started {
		return
	}
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.started = true
}
