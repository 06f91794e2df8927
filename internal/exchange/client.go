// Package exchange talks to the data node REST API.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrAPIFailure   = errors.New("data node request failed")
	ErrMissingField = errors.New("missing field in data node response")
)

// Client performs GET requests against a data node. Timeouts are owned by the
// underlying http.Client.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *Client) doRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned %d: %s", ErrAPIFailure, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("decode %s: %w", req.URL.Path, err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	reqURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	return c.doRequest(req, result)
}

// getKey fetches path and decodes the top-level field key into result.
func (c *Client) getKey(ctx context.Context, path string, params url.Values, key string, result any) error {
	var envelope map[string]json.RawMessage
	if err := c.get(ctx, path, params, &envelope); err != nil {
		return err
	}
	raw, ok := envelope[key]
	if !ok || string(raw) == "null" {
		return fmt.Errorf("%w: %q in %s", ErrMissingField, key, path)
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("decode %q in %s: %w", key, path, err)
	}
	return nil
}
