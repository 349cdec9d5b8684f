package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/concierge-labs/concierge/pkg/models"
	"github.com/concierge-labs/concierge/pkg/tooling"
)

func TestParseDecisionToolCallJSON(t *testing.T) {
	d := ParseDecision("tool:analyze_csv {\"file_path\": \"data.csv\", \"question\": \"total?\"}")
	if d.Terminal {
		t.Fatal("expected tool call")
	}
	if d.ToolName != "analyze_csv" {
		t.Fatalf("got tool %q", d.ToolName)
	}
	if d.Arguments["file_path"] != "data.csv" {
		t.Fatalf("got args %v", d.Arguments)
	}
}

func TestParseDecisionToolCallRawArgs(t *testing.T) {
	d := ParseDecision("tool:summarize_text the quick brown fox")
	if d.ToolName != "summarize_text" {
		t.Fatalf("got tool %q", d.ToolName)
	}
	if d.Arguments["input"] != "the quick brown fox" {
		t.Fatalf("raw args should land under input, got %v", d.Arguments)
	}
}

func TestParseDecisionFinal(t *testing.T) {
	d := ParseDecision("final: The total revenue is 42.")
	if !d.Terminal {
		t.Fatal("expected terminal")
	}
	if d.Answer != "The total revenue is 42." {
		t.Fatalf("got %q", d.Answer)
	}
}

func TestParseDecisionBareTextIsTerminal(t *testing.T) {
	d := ParseDecision("I could not find anything useful.")
	if !d.Terminal || d.Answer == "" {
		t.Fatalf("bare text should be a terminal answer, got %+v", d)
	}
}

func TestParseDecisionToolOnLaterLine(t *testing.T) {
	d := ParseDecision("Let me look that up.\ntool:web_search {\"query\": \"go generics\"}")
	if d.Terminal || d.ToolName != "web_search" {
		t.Fatalf("expected tool call picked out of multi-line reply, got %+v", d)
	}
}

func TestPromptReasonerRendersToolsAndTranscript(t *testing.T) {
	capture := &captureModel{reply: "final: ok"}
	r := NewPromptReasoner(capture)

	specs := []tooling.ToolSpec{{
		Name:        "web_search",
		Description: "Search the web",
		Params:      []tooling.Param{{Name: "query", Type: "string", Required: true, Description: "search terms"}},
	}}
	transcript := []Step{{Tool: "web_search", Output: "three results", Failed: false}}

	d, err := r.Decide(context.Background(), "You are helpful.", specs, "find gophers", transcript)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !d.Terminal {
		t.Fatalf("expected terminal, got %+v", d)
	}

	prompt := capture.lastPrompt
	for _, want := range []string{"web_search", "query (string, required)", "three results", "find gophers", "tool:<name>"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

type captureModel struct {
	reply      string
	lastPrompt string
}

func (m *captureModel) Generate(_ context.Context, prompt string) (string, error) {
	m.lastPrompt = prompt
	return m.reply, nil
}

var _ models.Model = (*captureModel)(nil)
