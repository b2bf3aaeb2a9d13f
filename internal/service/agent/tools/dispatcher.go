package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jobhunter/internal/domain"
	"jobhunter/internal/domain/models/agent"
)

const defaultToolFailure = "tool reported failure without an error message"

// Notifier receives dispatcher progress. Any returned error aborts the batch:
// a transport that cannot deliver tool events must not see tools keep running.
type Notifier interface {
	ToolStarting(ctx context.Context, call agent.ToolCall) error
	ToolTransition(ctx context.Context, prev, next agent.ToolCall) error
	ToolFinished(ctx context.Context, inv *agent.ToolInvocation) error
}

// Dispatcher executes the tool calls of one model response, one at a time,
// in the order the model emitted them.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewDispatcher creates a dispatcher over an immutable registry.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

// Dispatch runs calls sequentially and returns the finalized invocations.
//
// Tool failures never return an error; they become failed invocations, as
// does a call repeating an id already used in calls.
// The returned error is non-nil only when ctx is cancelled (the invocations
// completed so far are returned) or a notifier refuses an event.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []agent.ToolCall, notifier Notifier) ([]agent.ToolInvocation, error) {
	invocations := make([]agent.ToolInvocation, 0, len(calls))
	seen := make(map[string]bool, len(calls))

	for i, call := range calls {
		if err := ctx.Err(); err != nil {
			return invocations, err
		}

		if i > 0 {
			if err := notifier.ToolTransition(ctx, calls[i-1], call); err != nil {
				return invocations, deliveryError("tool transition", err)
			}
		}
		if err := notifier.ToolStarting(ctx, call); err != nil {
			return invocations, deliveryError("tool start", err)
		}

		var inv agent.ToolInvocation
		if seen[call.ID] {
			inv = d.rejectDuplicate(call)
		} else {
			inv = d.Execute(ctx, call)
		}
		seen[call.ID] = true

		// A tool that returned after cancellation may carry a partial result.
		if err := ctx.Err(); err != nil {
			d.logger.Debug("discarding tool result after cancellation",
				"tool", call.Name,
				"tool_id", call.ID,
			)
			return invocations, err
		}

		if err := notifier.ToolFinished(ctx, &inv); err != nil {
			return invocations, deliveryError("tool result", err)
		}
		invocations = append(invocations, inv)
	}

	return invocations, nil
}

// Execute runs a single tool call and normalizes its outcome into a
// finalized invocation. It never panics and never returns a partial result.
func (d *Dispatcher) Execute(ctx context.Context, call agent.ToolCall) agent.ToolInvocation {
	inv := agent.ToolInvocation{
		ID:        call.ID,
		Name:      call.Name,
		Input:     call.Input,
		StartedAt: d.now(),
	}

	handler, ok := d.registry.Get(call.Name)
	if !ok {
		err := fmt.Errorf("%w: unknown tool %q", domain.ErrMalformedToolRequest, call.Name)
		d.logger.Warn("model requested unknown tool", "tool", call.Name, "tool_id", call.ID)
		d.fail(&inv, err.Error(), "")
		return inv
	}

	params, err := decodeInput(call.Input)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrMalformedToolRequest, err)
		d.logger.Warn("tool input rejected", "tool", call.Name, "tool_id", call.ID, "error", err)
		d.fail(&inv, err.Error(), "")
		return inv
	}

	result, err := d.invoke(ctx, handler.Invoke, call.Name, params)
	if err != nil {
		var execErr *domain.ToolExecutionError
		if !errors.As(err, &execErr) {
			err = &domain.ToolExecutionError{Tool: call.Name, Err: err}
		}
		d.logger.Warn("tool execution failed",
			"tool", call.Name,
			"tool_id", call.ID,
			"error", err,
		)
		d.fail(&inv, err.Error(), result.Message)
		return inv
	}

	d.normalize(&inv, result)

	d.logger.Debug("tool executed",
		"tool", call.Name,
		"tool_id", call.ID,
		"success", inv.Succeeded(),
		"duration_ms", inv.CompletedAt.Sub(inv.StartedAt).Milliseconds(),
	)
	return inv
}

func (d *Dispatcher) invoke(
	ctx context.Context,
	fn func(context.Context, map[string]any) (agent.ToolResult, error),
	name string,
	params map[string]any,
) (result agent.ToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool panicked", "tool", name, "panic", r)
			result = agent.ToolResult{}
			err = &domain.ToolExecutionError{Tool: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return fn(ctx, params)
}

// normalize enforces the envelope contract: success carries serializable
// data and no error; failure carries a non-empty error.
func (d *Dispatcher) normalize(inv *agent.ToolInvocation, result agent.ToolResult) {
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = result.Message
		}
		if msg == "" {
			msg = defaultToolFailure
		}
		d.fail(inv, msg, result.Message)
		return
	}

	if result.Error != "" {
		d.fail(inv, "tool reported success with an error: "+result.Error, result.Message)
		return
	}

	output, err := normalizeData(result.Data)
	if err != nil {
		d.fail(inv, fmt.Sprintf("tool output is not serializable: %v", err), result.Message)
		return
	}

	completed := d.now()
	success := true
	inv.CompletedAt = &completed
	inv.Success = &success
	inv.Output = output
	inv.Message = result.Message
}

// rejectDuplicate answers a call whose id was already used in the same
// response without running the tool a second time.
func (d *Dispatcher) rejectDuplicate(call agent.ToolCall) agent.ToolInvocation {
	inv := agent.ToolInvocation{
		ID:        call.ID,
		Name:      call.Name,
		Input:     call.Input,
		StartedAt: d.now(),
	}
	err := fmt.Errorf("%w: duplicate tool call id %q", domain.ErrMalformedToolRequest, call.ID)
	d.logger.Warn("model repeated a tool call id", "tool", call.Name, "tool_id", call.ID)
	d.fail(&inv, err.Error(), "")
	return inv
}

func (d *Dispatcher) fail(inv *agent.ToolInvocation, errMsg, message string) {
	completed := d.now()
	success := false
	inv.CompletedAt = &completed
	inv.Success = &success
	inv.Output = nil
	inv.Error = errMsg
	inv.Message = message
}

func deliveryError(stage string, err error) error {
	if errors.Is(err, domain.ErrEventDelivery) || errors.Is(err, domain.ErrStreamClosed) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrEventDelivery, stage, err)
}

func decodeInput(raw json.RawMessage) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("tool input must be a JSON object: %w", err)
	}
	if params == nil {
		params = map[string]any{}
	}
	return params, nil
}

// normalizeData round-trips tool output through JSON so everything stored in
// an invocation is plain JSON data.
func normalizeData(data any) (any, error) {
	if data == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, err
	}
	return out, nil
}
