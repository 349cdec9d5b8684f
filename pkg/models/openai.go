package models

import (
	"context"
	"errors"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIModel wraps the OpenAI chat completions API.
type OpenAIModel struct {
	Client      *openai.Client
	Model       string
	Temperature float32
}

// NewOpenAIModel reads OPENAI_API_KEY (OPENAI_KEY as fallback) from the
// environment.
func NewOpenAIModel(model string) *OpenAIModel {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_KEY")
	}
	return &OpenAIModel{Client: openai.NewClient(apiKey), Model: model}
}

func (o *OpenAIModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.Model,
		Temperature: o.Temperature,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ Model = (*OpenAIModel)(nil)
