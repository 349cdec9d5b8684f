package tooling

import "context"

// ToolRequest carries the arguments for a single tool invocation along with
// the session and user that triggered it.
type ToolRequest struct {
	SessionID string
	UserID    string
	Arguments map[string]any
}

// ToolResponse is the textual result of a tool invocation plus optional
// metadata for the transcript.
type ToolResponse struct {
	Content  string
	Metadata map[string]string
}

// Param describes one named parameter of a tool's input schema.
type Param struct {
	Name        string
	Type        string // "string" or "int"
	Required    bool
	Description string
}

// ToolSpec describes a tool to both the registry and the reasoning model.
type ToolSpec struct {
	Name        string
	Description string
	Params      []Param
}

// Tool is a named external action with a fixed input schema. Invoke reports
// failures as errors; the registry converts them to text so a model-driven
// caller can read and react to them.
type Tool interface {
	Spec() ToolSpec
	Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error)
}

// Func adapts a plain function to the Tool interface.
type Func struct {
	ToolSpec ToolSpec
	Run      func(ctx context.Context, req ToolRequest) (ToolResponse, error)
}

func (f Func) Spec() ToolSpec { return f.ToolSpec }

func (f Func) Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error) {
	return f.Run(ctx, req)
}
