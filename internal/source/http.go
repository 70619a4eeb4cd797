package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultHTTPTimeout = 2 * time.Minute

// HTTP fetches documents with GET requests.
type HTTP struct {
	client *http.Client
}

// NewHTTP constructs an HTTP fetcher. A zero timeout selects a default
// generous enough for full ontology dumps.
func NewHTTP(timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTP{client: &http.Client{Timeout: timeout}}
}

// Fetch issues GET uri and returns the response body on 2xx.
func (h *HTTP) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch %s: %w", uri, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s failed: HTTP %d: %s", uri, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp.Body, nil
}
