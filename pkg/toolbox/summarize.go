package toolbox

import (
	"context"
	"fmt"

	"github.com/concierge-labs/concierge/pkg/models"
	"github.com/concierge-labs/concierge/pkg/tooling"
)

// NewSummarize returns a tool that condenses text with the given model.
func NewSummarize(model models.Model) tooling.Tool {
	return tooling.Func{
		ToolSpec: tooling.ToolSpec{
			Name:        "summarize_text",
			Description: "Summarize a block of text into a few concise sentences.",
			Params: []tooling.Param{
				{Name: "input", Type: "string", Required: true, Description: "text to summarize"},
			},
		},
		Run: func(ctx context.Context, req tooling.ToolRequest) (tooling.ToolResponse, error) {
			text := tooling.StringArg(req.Arguments, "input")
			prompt := "Summarize the following text in a few concise sentences. Keep the key facts.\n\n" + text
			summary, err := model.Generate(ctx, prompt)
			if err != nil {
				return tooling.ToolResponse{}, fmt.Errorf("summarize: %w", err)
			}
			return tooling.ToolResponse{Content: summary}, nil
		},
	}
}
