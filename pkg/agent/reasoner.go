package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/concierge-labs/concierge/pkg/models"
	"github.com/concierge-labs/concierge/pkg/tooling"
)

// Decision is the outcome of one reasoning step: either a terminal answer or
// a request to invoke a named tool.
type Decision struct {
	Terminal  bool
	Answer    string
	ToolName  string
	Arguments map[string]any
}

// Reasoner is the delegated reasoning capability. Given the handler's
// instructions, the available tool specs, the original input and the
// transcript so far, it decides the next move.
type Reasoner interface {
	Decide(ctx context.Context, instructions string, specs []tooling.ToolSpec, input string, transcript []Step) (Decision, error)
}

// PromptReasoner drives any text model through a line protocol: the model
// answers with `tool:<name> <json arguments>` to act, or `final: <answer>`
// to finish. Bare text is treated as a terminal answer.
type PromptReasoner struct {
	Model models.Model
}

func NewPromptReasoner(model models.Model) *PromptReasoner {
	return &PromptReasoner{Model: model}
}

func (r *PromptReasoner) Decide(ctx context.Context, instructions string, specs []tooling.ToolSpec, input string, transcript []Step) (Decision, error) {
	prompt := buildPrompt(instructions, specs, input, transcript)
	out, err := r.Model.Generate(ctx, prompt)
	if err != nil {
		return Decision{}, err
	}
	return ParseDecision(out), nil
}

func buildPrompt(instructions string, specs []tooling.ToolSpec, input string, transcript []Step) string {
	var sb strings.Builder
	sb.Grow(2048)

	sb.WriteString(strings.TrimSpace(instructions))
	sb.WriteString("\n\n")
	sb.WriteString(renderTools(specs))

	sb.WriteString("\nTool calls so far:\n")
	sb.WriteString(renderTranscript(transcript))

	sb.WriteString("\nUser request:\n")
	sb.WriteString(strings.TrimSpace(input))
	sb.WriteString("\n\nReply with exactly one line: `tool:<name> <json arguments>` to invoke a tool, or `final: <answer>` once you can answer.\n")

	return sb.String()
}

func renderTools(specs []tooling.ToolSpec) string {
	if len(specs) == 0 {
		return "No tools are available; answer directly.\n"
	}
	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, spec := range specs {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", spec.Name, spec.Description))
		for _, p := range spec.Params {
			req := "optional"
			if p.Required {
				req = "required"
			}
			sb.WriteString(fmt.Sprintf("    %s (%s, %s): %s\n", p.Name, p.Type, req, p.Description))
		}
	}
	return sb.String()
}

func renderTranscript(transcript []Step) string {
	if len(transcript) == 0 {
		return "(none)\n"
	}
	var sb strings.Builder
	for i, step := range transcript {
		outcome := step.Output
		if step.Failed {
			outcome = "FAILED: " + step.Output
		}
		sb.WriteString(fmt.Sprintf("%d. %s => %s\n", i+1, step.Tool, escapeContent(outcome)))
	}
	return sb.String()
}

func escapeContent(s string) string {
	return strings.ReplaceAll(s, "`", "'")
}

// ParseDecision interprets a model reply under the line protocol.
func ParseDecision(out string) Decision {
	trimmed := strings.TrimSpace(out)
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "tool:") {
			payload := strings.TrimSpace(line[len("tool:"):])
			name, args := splitCommand(payload)
			if name == "" {
				continue
			}
			return Decision{ToolName: name, Arguments: parseToolArguments(args)}
		}
	}
	answer := trimmed
	if lower := strings.ToLower(trimmed); strings.HasPrefix(lower, "final:") {
		answer = strings.TrimSpace(trimmed[len("final:"):])
	}
	return Decision{Terminal: true, Answer: answer}
}

func splitCommand(payload string) (name, args string) {
	parts := strings.Fields(payload)
	if len(parts) == 0 {
		return "", ""
	}
	name = parts[0]
	if len(payload) > len(name) {
		args = strings.TrimSpace(payload[len(name):])
	}
	return name, args
}

func parseToolArguments(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}
	if strings.HasPrefix(raw, "{") {
		var payload map[string]any
		if err := json.Unmarshal([]byte(raw), &payload); err == nil {
			return payload
		}
	}
	return map[string]any{"input": raw}
}
