package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/concierge-labs/concierge/pkg/errorsx"
	"github.com/concierge-labs/concierge/pkg/tooling"
)

// scriptReasoner plays back a fixed sequence of decisions.
type scriptReasoner struct {
	decisions []Decision
	err       error
	calls     int
}

func (r *scriptReasoner) Decide(_ context.Context, _ string, _ []tooling.ToolSpec, _ string, _ []Step) (Decision, error) {
	if r.err != nil {
		return Decision{}, r.err
	}
	idx := r.calls
	if idx >= len(r.decisions) {
		idx = len(r.decisions) - 1
	}
	r.calls++
	return r.decisions[idx], nil
}

func echoRegistry(t *testing.T) *tooling.Registry {
	t.Helper()
	r, err := tooling.NewRegistry(tooling.Func{
		ToolSpec: tooling.ToolSpec{
			Name:        "echo",
			Description: "echoes its input",
			Params:      []tooling.Param{{Name: "input", Type: "string", Required: true}},
		},
		Run: func(_ context.Context, req tooling.ToolRequest) (tooling.ToolResponse, error) {
			return tooling.ToolResponse{Content: tooling.StringArg(req.Arguments, "input")}, nil
		},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return r
}

func TestHandlerTerminalAnswer(t *testing.T) {
	h, err := New(Config{ID: "fallback", Instructions: "assist", Tools: []string{"echo"}},
		echoRegistry(t), &scriptReasoner{decisions: []Decision{{Terminal: true, Answer: "done"}}}, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	session := NewSession("fallback", "user-1", "hi")
	h.Run(context.Background(), session)

	if session.Status != StatusSucceeded {
		t.Fatalf("expected success, got %s (%v)", session.Status, session.Err)
	}
	if session.Result != "done" {
		t.Fatalf("got result %q", session.Result)
	}
	if len(session.Transcript) != 0 {
		t.Fatalf("expected empty transcript, got %d steps", len(session.Transcript))
	}
}

func TestHandlerToolThenAnswer(t *testing.T) {
	reasoner := &scriptReasoner{decisions: []Decision{
		{ToolName: "echo", Arguments: map[string]any{"input": "ping"}},
		{Terminal: true, Answer: "pong"},
	}}
	h, _ := New(Config{ID: "fallback", Instructions: "assist", Tools: []string{"echo"}},
		echoRegistry(t), reasoner, nil)

	session := NewSession("fallback", "user-1", "hi")
	h.Run(context.Background(), session)

	if session.Status != StatusSucceeded {
		t.Fatalf("expected success, got %s", session.Status)
	}
	if len(session.Transcript) != 1 {
		t.Fatalf("expected 1 step, got %d", len(session.Transcript))
	}
	if session.Transcript[0].Output != "ping" {
		t.Fatalf("got step output %q", session.Transcript[0].Output)
	}
}

func TestHandlerStepLimit(t *testing.T) {
	// Reasoner that always wants another tool call must hit the bound.
	reasoner := &scriptReasoner{decisions: []Decision{
		{ToolName: "echo", Arguments: map[string]any{"input": "again"}},
	}}
	h, _ := New(Config{ID: "fallback", Instructions: "assist", Tools: []string{"echo"}, MaxSteps: 3},
		echoRegistry(t), reasoner, nil)

	session := NewSession("fallback", "user-1", "hi")
	h.Run(context.Background(), session)

	if session.Status != StatusFailed {
		t.Fatalf("expected failure, got %s", session.Status)
	}
	if errorsx.KindOf(session.Err) != errorsx.KindStepLimitExceeded {
		t.Fatalf("expected step_limit_exceeded, got %v", session.Err)
	}
	if len(session.Transcript) != 3 {
		t.Fatalf("expected exactly 3 steps, got %d", len(session.Transcript))
	}
	if session.Result != "again" {
		t.Fatalf("expected best-effort last output, got %q", session.Result)
	}
}

func TestHandlerDisallowedToolDoesNotAbort(t *testing.T) {
	reasoner := &scriptReasoner{decisions: []Decision{
		{ToolName: "forbidden", Arguments: map[string]any{}},
		{Terminal: true, Answer: "recovered"},
	}}
	h, _ := New(Config{ID: "calendar", Instructions: "schedule", Tools: []string{"echo"}},
		echoRegistry(t), reasoner, nil)

	session := NewSession("calendar", "user-1", "hi")
	h.Run(context.Background(), session)

	if session.Status != StatusSucceeded {
		t.Fatalf("expected recovery, got %s (%v)", session.Status, session.Err)
	}
	if len(session.Transcript) != 1 || !session.Transcript[0].Failed {
		t.Fatalf("expected one failed step, got %+v", session.Transcript)
	}
	if !strings.Contains(session.Transcript[0].Output, "not available") {
		t.Fatalf("expected not-allowed message in step, got %q", session.Transcript[0].Output)
	}
}

func TestHandlerReasonerError(t *testing.T) {
	h, _ := New(Config{ID: "fallback", Instructions: "assist", Tools: []string{"echo"}},
		echoRegistry(t), &scriptReasoner{err: errors.New("model down")}, nil)

	session := NewSession("fallback", "user-1", "hi")
	h.Run(context.Background(), session)

	if session.Status != StatusFailed {
		t.Fatalf("expected failure, got %s", session.Status)
	}
	if errorsx.KindOf(session.Err) != errorsx.KindExternalService {
		t.Fatalf("expected external_service, got %v", session.Err)
	}
}

func TestHandlerFailingToolIsReportedToReasoner(t *testing.T) {
	registry, _ := tooling.NewRegistry(tooling.Func{
		ToolSpec: tooling.ToolSpec{Name: "flaky", Description: "fails once"},
		Run: func(_ context.Context, _ tooling.ToolRequest) (tooling.ToolResponse, error) {
			return tooling.ToolResponse{}, errors.New("transient upstream error")
		},
	})
	reasoner := &scriptReasoner{decisions: []Decision{
		{ToolName: "flaky", Arguments: map[string]any{}},
		{Terminal: true, Answer: "gave up gracefully"},
	}}
	h, _ := New(Config{ID: "fallback", Instructions: "assist", Tools: []string{"flaky"}}, registry, reasoner, nil)

	session := NewSession("fallback", "user-1", "hi")
	h.Run(context.Background(), session)

	if session.Status != StatusSucceeded {
		t.Fatalf("expected session to continue past tool failure, got %s", session.Status)
	}
	if !session.Transcript[0].Failed {
		t.Fatal("expected failed step recorded")
	}
	if !strings.Contains(session.Transcript[0].Output, "transient upstream error") {
		t.Fatalf("expected failure text visible to reasoner, got %q", session.Transcript[0].Output)
	}
}

func TestHandlerEmptyInputPassesThrough(t *testing.T) {
	reasoner := &scriptReasoner{decisions: []Decision{{Terminal: true, Answer: "nothing to do"}}}
	h, _ := New(Config{ID: "fallback", Instructions: "assist"}, echoRegistry(t), reasoner, nil)

	session := NewSession("fallback", "user-1", "")
	h.Run(context.Background(), session)

	if session.Status != StatusSucceeded {
		t.Fatalf("empty input should be routed, got %s", session.Status)
	}
}
