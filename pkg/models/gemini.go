package models

import (
	"context"
	"errors"
	"fmt"
	"os"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiModel wraps Google's generative language API.
type GeminiModel struct {
	Client *genai.Client
	Model  string
}

// NewGeminiModel reads GOOGLE_API_KEY (GEMINI_API_KEY as fallback) from the
// environment.
func NewGeminiModel(ctx context.Context, model string) (*GeminiModel, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &GeminiModel{Client: client, Model: model}, nil
}

func (g *GeminiModel) Generate(ctx context.Context, prompt string) (string, error) {
	model := g.Client.GenerativeModel(g.Model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: empty response")
	}
	return fmt.Sprint(resp.Candidates[0].Content.Parts[0]), nil
}

var _ Model = (*GeminiModel)(nil)
