package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultTimeout = 12 * time.Second

// maxBodySize caps profile pages and avatar downloads.
const maxBodySize = 16 << 20

func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// GetBytes fetches url and returns its body. Non-2xx responses are errors.
func GetBytes(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = NewClient(0)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}
