// Package toolbox provides the concrete tools handlers dispatch to.
// Tools report faults as plain errors; the registry turns them into
// kinded failure text the reasoning loop can read and react to.
package toolbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/concierge-labs/concierge/pkg/tooling"
)

const searchTimeout = 15 * time.Second

var httpClient = &http.Client{Timeout: searchTimeout}

// NewWebSearch returns a tool that answers from DuckDuckGo's instant
// answer API. Results are trimmed to a short abstract.
func NewWebSearch() tooling.Tool {
	return tooling.Func{
		ToolSpec: tooling.ToolSpec{
			Name:        "web_search",
			Description: "Search the web for current information. Input is a plain search query.",
			Params: []tooling.Param{
				{Name: "input", Type: "string", Required: true, Description: "search query"},
			},
		},
		Run: func(ctx context.Context, req tooling.ToolRequest) (tooling.ToolResponse, error) {
			query := tooling.StringArg(req.Arguments, "input")
			answer, err := duckDuckGoAnswer(ctx, query)
			if err != nil {
				return tooling.ToolResponse{}, err
			}
			if answer == "" {
				return tooling.ToolResponse{Content: "No results found for: " + query}, nil
			}
			return tooling.ToolResponse{Content: answer}, nil
		},
	}
}

// NewWikipediaSearch returns a tool backed by the MediaWiki REST summary
// endpoint.
func NewWikipediaSearch() tooling.Tool {
	return tooling.Func{
		ToolSpec: tooling.ToolSpec{
			Name:        "wikipedia_search",
			Description: "Look up a topic on Wikipedia and return a short summary.",
			Params: []tooling.Param{
				{Name: "input", Type: "string", Required: true, Description: "topic to look up"},
			},
		},
		Run: func(ctx context.Context, req tooling.ToolRequest) (tooling.ToolResponse, error) {
			topic := tooling.StringArg(req.Arguments, "input")
			summary, err := wikipediaSummary(ctx, topic)
			if err != nil {
				return tooling.ToolResponse{}, err
			}
			if summary == "" {
				return tooling.ToolResponse{Content: "No Wikipedia article found for: " + topic}, nil
			}
			return tooling.ToolResponse{Content: summary}, nil
		},
	}
}

func duckDuckGoAnswer(ctx context.Context, query string) (string, error) {
	endpoint := "https://api.duckduckgo.com/?" + url.Values{
		"q":             {query},
		"format":        {"json"},
		"no_redirect":   {"1"},
		"skip_disambig": {"1"},
	}.Encode()
	body, err := fetch(ctx, endpoint)
	if err != nil {
		return "", err
	}
	var payload struct {
		AbstractText  string `json:"AbstractText"`
		Answer        string `json:"Answer"`
		RelatedTopics []struct {
			Text string `json:"Text"`
		} `json:"RelatedTopics"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}
	if payload.Answer != "" {
		return payload.Answer, nil
	}
	if payload.AbstractText != "" {
		return payload.AbstractText, nil
	}
	var lines []string
	for _, t := range payload.RelatedTopics {
		if t.Text != "" {
			lines = append(lines, t.Text)
		}
		if len(lines) == 3 {
			break
		}
	}
	return strings.Join(lines, "\n"), nil
}

var wikiTitleSpaces = regexp.MustCompile(`\s+`)

func wikipediaSummary(ctx context.Context, topic string) (string, error) {
	title := wikiTitleSpaces.ReplaceAllString(strings.TrimSpace(topic), "_")
	endpoint := "https://en.wikipedia.org/api/rest_v1/page/summary/" + url.PathEscape(title)
	body, err := fetch(ctx, endpoint)
	if err != nil {
		return "", err
	}
	var payload struct {
		Extract string `json:"extract"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode wikipedia response: %w", err)
	}
	return payload.Extract, nil
}

func fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "concierge/1.0")
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}
