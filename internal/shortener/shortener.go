// Package shortener wraps a GET-based link shortening service.
package shortener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrRejected = errors.New("link rejected by shortener")

// maxBody bounds the response read from the service.
const maxBody = 4 << 10

type Client struct {
	endpoint string
	http     *http.Client
}

// New builds a client for endpoint, which receives the link as the "url" query parameter.
func New(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *Client) Shorten(ctx context.Context, link string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse shortener endpoint: %w", err)
	}
	q := u.Query()
	q.Set("url", link)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call shortener: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("read shortener response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	short := strings.TrimSpace(string(body))
	if short == "" {
		return "", fmt.Errorf("%w: empty response", ErrRejected)
	}
	return short, nil
}
