package models

import (
	"context"
	"fmt"
)

// NewProvider constructs a Model for the named provider.
func NewProvider(ctx context.Context, provider, model string) (Model, error) {
	switch provider {
	case "openai":
		return NewOpenAIModel(model), nil
	case "anthropic", "claude":
		return NewAnthropicModel(model), nil
	case "gemini", "google":
		return NewGeminiModel(ctx, model)
	case "ollama":
		return NewOllamaModel(model)
	case "dummy":
		return NewDummyModel(""), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
