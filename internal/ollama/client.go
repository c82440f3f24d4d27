package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	DefaultHost  = "http://localhost:11434"
	DefaultModel = "llama3.1"
)

// Client handles communication with the Ollama API.
type Client struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// NewClient creates a new Ollama client for model.
func NewClient(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultHost
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// GenerateRequest represents the payload for /api/generate.
type GenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Options map[string]any `json:"options,omitempty"`
	Stream  bool           `json:"stream"`
}

// GenerateResponse represents the result from /api/generate.
type GenerateResponse struct {
	Model         string `json:"model"`
	Response      string `json:"response"`
	Done          bool   `json:"done"`
	TotalDuration int64  `json:"total_duration"`
}

// Generate sends prompt to /api/generate and returns the trimmed response text.
// The deadline comes from ctx.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.Do(ctx, GenerateRequest{Model: c.Model, Prompt: prompt})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Response), nil
}

// Do sends a raw request to /api/generate.
func (c *Client) Do(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	req.Stream = false
	if req.Model == "" {
		req.Model = c.Model
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "ollama: encode request")
	}

	url := fmt.Sprintf("%s/api/generate", c.BaseURL)
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return nil, errors.Wrap(err, "ollama: build request")
	}
	hreq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(hreq)
	if err != nil {
		return nil, errors.Wrapf(err, "ollama: POST %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.Newf("ollama error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var genResp GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, errors.Wrap(err, "ollama: decode response")
	}
	return &genResp, nil
}
