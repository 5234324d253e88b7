package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxImageBytes = 20 << 20

var (
	ErrInvalidURL   = errors.New("invalid url")
	ErrUpstream     = errors.New("upstream request failed")
	ErrTooLarge     = errors.New("response too large")
	defaultMimeType = "application/octet-stream"
)

// Fetched is a fully buffered upstream response.
type Fetched struct {
	Body        []byte
	ContentType string
}

// Fetch downloads an absolute http(s) URL through the retry client.
func (c *RetryClient) Fetch(ctx context.Context, rawURL string) (*Fetched, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %s", ErrUpstream, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxImageBytes {
		return nil, ErrTooLarge
	}

	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = defaultMimeType
	}

	return &Fetched{Body: body, ContentType: contentType}, nil
}
