package models

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaModel wraps a local Ollama server.
type OllamaModel struct {
	Client *ollama.Client
	Model  string
}

// NewOllamaModel reads OLLAMA_HOST from the environment, defaulting to the
// standard local port.
func NewOllamaModel(model string) (*OllamaModel, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", host, err)
	}
	httpClient := &http.Client{Timeout: 60 * time.Second}
	return &OllamaModel{Client: ollama.NewClient(u, httpClient), Model: model}, nil
}

func (o *OllamaModel) Generate(ctx context.Context, prompt string) (string, error) {
	var text strings.Builder
	req := &ollama.GenerateRequest{Model: o.Model, Prompt: prompt}
	err := o.Client.Generate(ctx, req, func(gr ollama.GenerateResponse) error {
		if gr.Response != "" {
			text.WriteString(gr.Response)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return text.String(), nil
}

var _ Model = (*OllamaModel)(nil)
