// Package transport performs JSON round trips against provider APIs,
// injecting the current bearer token on every request.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goodtune/sleepsync/internal/metrics"
	"github.com/rs/zerolog"
)

// DefaultTimeout is applied to every outbound request when Config.Timeout
// is zero.
const DefaultTimeout = 5 * time.Second

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 4 << 20

// TokenSource yields the bearer token for the next request, refreshing it
// first if needed.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Config holds transport client configuration
type Config struct {
	Provider   string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // optional; Timeout is ignored when set
	Tokens     TokenSource  // nil for unauthenticated endpoints such as sign-in
}

// Client sends JSON requests to a single provider base URL.
type Client struct {
	provider   string
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     zerolog.Logger
}

// New creates a transport client
func New(cfg Config, logger zerolog.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		provider:   cfg.Provider,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     cfg.Tokens,
		logger:     logger,
	}
}

// Do sends body (JSON-encoded, nil for none) to path and decodes a 2xx
// response into out (nil to discard). Non-2xx responses return *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var (
		reader  io.Reader
		payload []byte
	)
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode %s %s request: %w", c.provider, method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	// Unauthenticated bodies are credential exchanges and never logged.
	event := c.logger.Debug().Str("method", method).Str("path", path)
	if body != nil && c.tokens != nil {
		event = event.RawJSON("body", payload)
	}
	event.Msg("Provider request")

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to build %s %s request: %w", c.provider, method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ProviderRequestDuration.WithLabelValues(c.provider).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(c.provider, method, "error").Inc()
		return fmt.Errorf("%s: %s %s: %w: %w", c.provider, method, path, ErrTransport, err)
	}
	defer resp.Body.Close()

	metrics.ProviderRequestsTotal.WithLabelValues(c.provider, method, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%s: %s %s: reading response: %w: %w", c.provider, method, path, ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("Provider returned non-2xx response")
		return &APIError{
			Provider:   c.provider,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %s %s: decoding response: %w: %w", c.provider, method, path, ErrTransport, err)
	}
	return nil
}

// Get is Do with GET and no body.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}
