package embed

import (
	"context"
	"fmt"
)

// NewProvider constructs an Embedder for the named provider.
func NewProvider(ctx context.Context, provider, model string) (Embedder, error) {
	switch provider {
	case "openai":
		return NewOpenAIEmbedder(model), nil
	case "gemini", "google":
		return NewGeminiEmbedder(ctx, model)
	case "fastembed", "local":
		return NewFastEmbedder(nil)
	case "dummy":
		return NewDummyEmbedder(), nil
	default:
		return nil, fmt.Errorf("unknown embedder provider: %s", provider)
	}
}
