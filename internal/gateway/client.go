// Package gateway wraps the external generative-language API behind four
// note-centric tasks: summary, keyword extraction, concept extraction, and
// semantic search. One call shape in (a prompt with sampling knobs), text out.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxResponseSize limits the API response body to prevent memory exhaustion.
const maxResponseSize = 4 * 1024 * 1024 // 4MB

// DefaultEndpoint is the generative-text completion endpoint.
const DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta3/models/text-bison-001:generateText"

// CredentialProvider supplies the per-installation API key. The second
// return is false when no key is configured.
type CredentialProvider interface {
	APIKey() (string, bool)
}

// Params are the sampling knobs sent with every request.
type Params struct {
	Temperature float64
	TopK        int
	TopP        float64
}

// DefaultParams returns sampling defaults tuned for note analysis.
func DefaultParams() Params {
	return Params{Temperature: 0.7, TopK: 40, TopP: 0.95}
}

// Client issues generative-text requests. It is the only component in the
// application that talks to the language API.
type Client struct {
	endpoint   string
	creds      CredentialProvider
	params     Params
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEndpoint overrides the completion endpoint URL.
func WithEndpoint(url string) ClientOption {
	return func(c *Client) { c.endpoint = url }
}

// WithParams sets the sampling parameters.
func WithParams(p Params) ClientOption {
	return func(c *Client) { c.params = p }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithClientLogger sets the logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client over the given credential provider.
func NewClient(creds CredentialProvider, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		creds:    creds,
		params:   DefaultParams(),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Prompt      promptBody `json:"prompt"`
	Temperature float64    `json:"temperature"`
	TopK        int        `json:"topK"`
	TopP        float64    `json:"topP"`
}

type promptBody struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Output string `json:"output"`
	} `json:"candidates"`
}

// Generate sends one prompt and returns the first candidate's text. A
// missing API key fails immediately with ErrNoAPIKey; no request is made.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	key, ok := c.creds.APIKey()
	if !ok || key == "" {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(generateRequest{
		Prompt:      promptBody{Text: prompt},
		Temperature: c.params.Temperature,
		TopK:        c.params.TopK,
		TopP:        c.params.TopP,
	})
	if err != nil {
		return "", NewFatalError(fmt.Errorf("gateway: encode request: %w", err))
	}

	url := c.endpoint + "?key=" + key
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", NewFatalError(fmt.Errorf("gateway: create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending generate request", "prompt_len", len(prompt))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// network errors are transient
		return "", NewTransientError(fmt.Errorf("gateway: request failed: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return "", NewTransientError(fmt.Errorf("gateway: read response: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", classifyHTTPError(httpResp.StatusCode, respBody)
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", NewFatalError(fmt.Errorf("gateway: decode response: %w", err))
	}
	if len(parsed.Candidates) == 0 || parsed.Candidates[0].Output == "" {
		return "", ErrNoOutput
	}
	return parsed.Candidates[0].Output, nil
}

// classifyHTTPError determines if an HTTP error is transient or fatal.
func classifyHTTPError(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	err := fmt.Errorf("gateway: API error (status %d): %s", statusCode, bodyStr)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewTransientError(err)
	case statusCode >= 500:
		return NewTransientError(err)
	case statusCode == http.StatusUnauthorized,
		statusCode == http.StatusForbidden:
		return NewFatalError(err)
	case statusCode == http.StatusBadRequest:
		return NewFatalError(err)
	default:
		return NewFatalError(err)
	}
}
