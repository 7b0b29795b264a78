// Package httpjson holds the request plumbing shared by the HTTP-based
// embedding and LLM adapters.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 2048

// StatusError is returned when an API answers with a non-200 status.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: API returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: API returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// Client sends JSON requests to one API.
type Client struct {
	HTTP    *http.Client
	Service string
	BaseURL string
	Headers map[string]string
}

// Post marshals in, posts it to path and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.Service, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.Service, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// Get issues a GET to path. out may be nil when only the status matters.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.Service, err)
	}
	return c.do(req, out)
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

func (c *Client) do(req *http.Request, out any) error {
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", c.Service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Service: c.Service, StatusCode: resp.StatusCode, Body: errorMessage(b)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.Service, err)
	}
	return nil
}

// errorMessage pulls the message out of the error bodies the providers
// send: {"error":"..."}, {"error":{"message":"..."}} or {"message":"..."}.
// Anything else is returned trimmed.
func errorMessage(body []byte) string {
	var parsed struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	raw := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &parsed) != nil {
		return raw
	}
	var flat string
	if json.Unmarshal(parsed.Error, &flat) == nil && flat != "" {
		return flat
	}
	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(parsed.Error, &nested) == nil && nested.Message != "" {
		return nested.Message
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	return raw
}
