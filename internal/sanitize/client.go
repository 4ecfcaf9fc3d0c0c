// Package sanitize is the client for the external text-sanitisation
// service, which strips PII and credentials and normalises whitespace
// before documents reach the indexing consumer.
//
// The client fails open: if the service is unreachable or returns an
// error, the original text is returned rather than failing the document.
// Availability over strictness.
package sanitize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// DefaultEndpoint is used when no endpoint is configured.
const DefaultEndpoint = "http://localhost:3000"

// Options control what the service strips.
type Options struct {
	RemovePII           bool `json:"removePII"`
	RemoveCredentials   bool `json:"removeCredentials"`
	NormalizeWhitespace bool `json:"normalizeWhitespace"`
}

// DefaultOptions enables all sanitisation passes.
func DefaultOptions() Options {
	return Options{
		RemovePII:           true,
		RemoveCredentials:   true,
		NormalizeWhitespace: true,
	}
}

// Client calls the sanitisation service.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client for the given endpoint.
// An empty endpoint falls back to DefaultEndpoint.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

type sanitizeRequest struct {
	Text    string  `json:"text"`
	Options Options `json:"options"`
}

type sanitizeResponse struct {
	Text string `json:"text"`
}

// Sanitize sends text through the service. On any failure the original
// text is returned; the error return is informational only and never
// accompanies modified text.
func (c *Client) Sanitize(ctx context.Context, text string, opts Options) (string, error) {
	if text == "" {
		return "", nil
	}

	body, err := json.Marshal(sanitizeRequest{Text: text, Options: opts})
	if err != nil {
		return text, fmt.Errorf("encoding sanitize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/sanitize", bytes.NewReader(body))
	if err != nil {
		return text, fmt.Errorf("building sanitize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("sanitize service unreachable, returning original text: %v", err)
		return text, fmt.Errorf("calling sanitize service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("sanitize service returned %d, returning original text", resp.StatusCode)
		return text, fmt.Errorf("sanitize service returned %s", resp.Status)
	}

	var result sanitizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Warn("sanitize response unreadable, returning original text: %v", err)
		return text, fmt.Errorf("decoding sanitize response: %w", err)
	}

	logger.Debug("sanitized %d chars to %d", len(text), len(result.Text))
	return result.Text, nil
}

// Healthy probes the service's health endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
