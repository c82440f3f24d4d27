// Package gemini is the Gemini text-generation backend.
package gemini

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash"

// Client generates text with a single Gemini model.
type Client struct {
	client *genai.Client
	model  string
}

// Option adjusts the genai client configuration.
type Option func(*genai.ClientConfig)

// WithBaseURL points the client at another endpoint, e.g. a test server.
func WithBaseURL(url string) Option {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = url
	}
}

// NewClient creates a Gemini API client for model.
func NewClient(ctx context.Context, apiKey, model string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "gemini: create client")
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) Model() string {
	return c.model
}

// Generate sends prompt as a single user turn and returns the trimmed text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", errors.Wrapf(err, "gemini: generate with %s", c.model)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.Newf("gemini: %s returned no text", c.model)
	}
	return text, nil
}
