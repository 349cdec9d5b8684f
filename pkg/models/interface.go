package models

import "context"

// Model is a single-turn text completion capability: prompt in, text out.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
