// Package googleauth supplies authorized HTTP clients for Google APIs.
// Token storage and refresh live entirely behind the CredentialsProvider
// contract; callers never touch serialization formats.
package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// CredentialsProvider yields an HTTP client authorized for the given scopes.
type CredentialsProvider interface {
	Client(ctx context.Context, scopes ...string) (*http.Client, error)
}

// FileProvider reads OAuth client secrets and a cached token from disk.
// Refresh is delegated to the oauth2 token source.
type FileProvider struct {
	SecretsPath string
	TokenPath   string
}

func NewFileProvider(secretsPath, tokenPath string) *FileProvider {
	return &FileProvider{SecretsPath: secretsPath, TokenPath: tokenPath}
}

func (p *FileProvider) Client(ctx context.Context, scopes ...string) (*http.Client, error) {
	cfg, err := p.config(scopes...)
	if err != nil {
		return nil, err
	}
	tok, err := p.readToken()
	if err != nil {
		return nil, fmt.Errorf("no cached token at %s (run the authorization flow first): %w", p.TokenPath, err)
	}
	return cfg.Client(ctx, tok), nil
}

// AuthURL returns the consent URL for the interactive authorization flow.
func (p *FileProvider) AuthURL(scopes ...string) (string, error) {
	cfg, err := p.config(scopes...)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline), nil
}

// Exchange trades an authorization code for a token and caches it.
func (p *FileProvider) Exchange(ctx context.Context, code string, scopes ...string) error {
	cfg, err := p.config(scopes...)
	if err != nil {
		return err
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	return p.writeToken(tok)
}

func (p *FileProvider) config(scopes ...string) (*oauth2.Config, error) {
	data, err := os.ReadFile(p.SecretsPath)
	if err != nil {
		return nil, fmt.Errorf("read client secrets: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse client secrets: %w", err)
	}
	return cfg, nil
}

func (p *FileProvider) readToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(p.TokenPath)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &tok, nil
}

func (p *FileProvider) writeToken(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(p.TokenPath, data, 0o600)
}

var _ CredentialsProvider = (*FileProvider)(nil)
