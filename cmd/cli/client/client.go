package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the sqlgate HTTP API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// APIError is returned for any non-2xx response.
type APIError struct {
	Status int
	// Body is the decoded error body, or nil when it was not JSON.
	Body map[string]any
	Raw  string
}

func (e *APIError) Error() string {
	if e.Body != nil {
		detail := e.Body["detail"]
		if name, ok := e.Body["error"]; ok {
			if detail != nil {
				return fmt.Sprintf("API error %d: %v: %v", e.Status, name, detail)
			}
			return fmt.Sprintf("API error %d: %v", e.Status, name)
		}
	}
	return fmt.Sprintf("API error %d: %s", e.Status, strings.TrimSpace(e.Raw))
}

// Do sends body (JSON-encoded when non-nil) and decodes a 2xx response into out.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Raw: string(raw)}
		var decoded map[string]any
		if json.Unmarshal(raw, &decoded) == nil {
			apiErr.Body = decoded
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(out)
}
