package models

import (
	"context"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicModel wraps Anthropic's Messages API.
type AnthropicModel struct {
	Client    *anthropic.Client
	Model     string
	MaxTokens int
}

// NewAnthropicModel reads ANTHROPIC_API_KEY from the environment.
func NewAnthropicModel(model string) *AnthropicModel {
	key := os.Getenv("ANTHROPIC_API_KEY")
	cl := anthropic.NewClient(anthropicopt.WithAPIKey(key))
	return &AnthropicModel{Client: &cl, Model: model, MaxTokens: 1024}
}

func (a *AnthropicModel) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := a.Client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Model),
		MaxTokens: int64(a.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return b.String(), nil
}

var _ Model = (*AnthropicModel)(nil)
