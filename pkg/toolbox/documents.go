package toolbox

import (
	"context"

	"github.com/concierge-labs/concierge/pkg/rag"
	"github.com/concierge-labs/concierge/pkg/tooling"
)

// NewDocumentQA returns a tool that answers questions from the caller's
// uploaded documents. The requesting user scopes retrieval so users only
// see their own material.
func NewDocumentQA(pipeline *rag.Pipeline) tooling.Tool {
	return tooling.Func{
		ToolSpec: tooling.ToolSpec{
			Name:        "answer_from_documents",
			Description: "Answer a question using the user's uploaded documents.",
			Params: []tooling.Param{
				{Name: "input", Type: "string", Required: true, Description: "question about the documents"},
			},
		},
		Run: func(ctx context.Context, req tooling.ToolRequest) (tooling.ToolResponse, error) {
			question := tooling.StringArg(req.Arguments, "input")
			answer, err := pipeline.Answer(ctx, req.UserID, question)
			if err != nil {
				return tooling.ToolResponse{}, err
			}
			return tooling.ToolResponse{Content: answer}, nil
		},
	}
}
