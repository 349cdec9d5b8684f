package router

import (
	"context"
	"testing"

	"github.com/concierge-labs/concierge/pkg/agent"
	"github.com/concierge-labs/concierge/pkg/errorsx"
	"github.com/concierge-labs/concierge/pkg/tooling"
)

type cannedReasoner struct {
	answer string
}

func (r cannedReasoner) Decide(_ context.Context, _ string, _ []tooling.ToolSpec, input string, _ []agent.Step) (agent.Decision, error) {
	answer := r.answer
	if answer == "" {
		answer = input
	}
	return agent.Decision{Terminal: true, Answer: answer}, nil
}

func newTestHandler(t *testing.T, id, answer string) *agent.Handler {
	t.Helper()
	registry, err := tooling.NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	h, err := agent.New(agent.Config{ID: id, Instructions: "test"}, registry, cannedReasoner{answer: answer}, nil)
	if err != nil {
		t.Fatalf("handler %s: %v", id, err)
	}
	return h
}

func defaultTestRouter(t *testing.T) *Router {
	t.Helper()
	handlers := []*agent.Handler{
		newTestHandler(t, HandlerSpreadsheet, "spreadsheet answer"),
		newTestHandler(t, HandlerVoice, "voice answer"),
		newTestHandler(t, HandlerCalendar, "calendar answer"),
		newTestHandler(t, HandlerFallback, "fallback answer"),
	}
	return New(DefaultRules(), HandlerFallback, handlers, nil)
}

func TestSelectCSV(t *testing.T) {
	r := defaultTestRouter(t)
	for _, input := range []string{
		"Please analyze data.CSV for me",
		"what does the csv say",
	} {
		if got := r.Select(input); got != HandlerSpreadsheet {
			t.Fatalf("input %q: got %s", input, got)
		}
	}
}

func TestSelectCalendar(t *testing.T) {
	r := defaultTestRouter(t)
	if got := r.Select("add it to my Calendar"); got != HandlerCalendar {
		t.Fatalf("got %s", got)
	}
	if got := r.Select("schedule a meeting with Ana"); got != HandlerCalendar {
		t.Fatalf("got %s", got)
	}
	// "schedule" alone is not enough.
	if got := r.Select("what is my schedule"); got != HandlerFallback {
		t.Fatalf("got %s", got)
	}
}

func TestSelectVoice(t *testing.T) {
	r := defaultTestRouter(t)
	if got := r.Select("transcribe this recording"); got != HandlerVoice {
		t.Fatalf("got %s", got)
	}
	if got := r.Select("the audio file from yesterday"); got != HandlerVoice {
		t.Fatalf("got %s", got)
	}
}

func TestSelectDefault(t *testing.T) {
	r := defaultTestRouter(t)
	if got := r.Select("tell me a joke"); got != HandlerFallback {
		t.Fatalf("got %s", got)
	}
}

func TestRuleOrderIsDeterministic(t *testing.T) {
	// An input matching both predicates must go to whichever rule is first.
	input := "put the csv report on my calendar"

	handlers := []*agent.Handler{
		newTestHandler(t, HandlerSpreadsheet, ""),
		newTestHandler(t, HandlerCalendar, ""),
	}

	csvFirst := New([]Rule{
		{Match: Contains("csv"), HandlerID: HandlerSpreadsheet},
		{Match: Contains("calendar"), HandlerID: HandlerCalendar},
	}, HandlerSpreadsheet, handlers, nil)
	if got := csvFirst.Select(input); got != HandlerSpreadsheet {
		t.Fatalf("csv-first order: got %s", got)
	}

	calendarFirst := New([]Rule{
		{Match: Contains("calendar"), HandlerID: HandlerCalendar},
		{Match: Contains("csv"), HandlerID: HandlerSpreadsheet},
	}, HandlerSpreadsheet, handlers, nil)
	if got := calendarFirst.Select(input); got != HandlerCalendar {
		t.Fatalf("calendar-first order: got %s", got)
	}
}

func TestRouteWrapsSuccess(t *testing.T) {
	r := defaultTestRouter(t)
	env := r.Route(context.Background(), "user-1", "tell me a joke")
	if env.Status != agent.StatusSucceeded {
		t.Fatalf("got status %s (%s)", env.Status, env.Message)
	}
	if env.Result != "fallback answer" {
		t.Fatalf("got result %q", env.Result)
	}
	if env.HandlerID != HandlerFallback {
		t.Fatalf("got handler %s", env.HandlerID)
	}
	if env.SessionID == "" {
		t.Fatal("expected a session id")
	}
}

func TestRouteMissingHandlerIsRoutingError(t *testing.T) {
	r := New(DefaultRules(), HandlerFallback, nil, nil)
	env := r.Route(context.Background(), "user-1", "anything")
	if env.Status != agent.StatusFailed {
		t.Fatalf("got status %s", env.Status)
	}
	if env.ErrorKind != string(errorsx.KindRouting) {
		t.Fatalf("got kind %s", env.ErrorKind)
	}
}

// csvThenFinal asks for analyze_csv once, then finalizes with the tool's
// own output.
type csvThenFinal struct{}

func (csvThenFinal) Decide(_ context.Context, _ string, _ []tooling.ToolSpec, input string, transcript []agent.Step) (agent.Decision, error) {
	if len(transcript) == 0 {
		return agent.Decision{ToolName: "analyze_csv", Arguments: map[string]any{"input": "data.csv||What is total revenue?"}}, nil
	}
	return agent.Decision{Terminal: true, Answer: transcript[len(transcript)-1].Output}, nil
}

func TestRouteSpreadsheetEndToEnd(t *testing.T) {
	calls := 0
	analyze := tooling.Func{
		ToolSpec: tooling.ToolSpec{
			Name:   "analyze_csv",
			Params: []tooling.Param{{Name: "input", Type: "string", Required: true}},
		},
		Run: func(context.Context, tooling.ToolRequest) (tooling.ToolResponse, error) {
			calls++
			return tooling.ToolResponse{Content: "Total revenue is 350."}, nil
		},
	}
	registry, err := tooling.NewRegistry(analyze)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	h, err := agent.New(agent.Config{ID: HandlerSpreadsheet, Tools: []string{"analyze_csv"}}, registry, csvThenFinal{}, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	r := New(DefaultRules(), HandlerFallback, []*agent.Handler{h}, nil)

	env := r.Route(context.Background(), "user-1", "Please analyze data.csv||What is total revenue?")
	if env.HandlerID != HandlerSpreadsheet {
		t.Fatalf("got handler %s", env.HandlerID)
	}
	if env.Status != agent.StatusSucceeded {
		t.Fatalf("got status %s (%s)", env.Status, env.Message)
	}
	if calls != 1 {
		t.Fatalf("analyze_csv called %d times", calls)
	}
	if env.Result != "Total revenue is 350." {
		t.Fatalf("expected verbatim tool output, got %q", env.Result)
	}
}

func TestRouteFallbackResultUnchanged(t *testing.T) {
	// End-to-end property: unmatched input goes to fallback and its result is
	// returned verbatim.
	handlers := []*agent.Handler{newTestHandler(t, HandlerFallback, "")}
	r := New(DefaultRules(), HandlerFallback, handlers, nil)

	env := r.Route(context.Background(), "user-1", "completely unrelated request")
	if env.Result != "completely unrelated request" {
		t.Fatalf("expected verbatim result, got %q", env.Result)
	}
}
