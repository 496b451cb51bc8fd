// Package httpclient provides an HTTP client with retries, timeouts and
// an optional circuit breaker for calls to upstream services.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"time"
)

// Config controls client timeouts and retry behavior.
type Config struct {
	Timeout       time.Duration
	MaxRetries    int
	RetryBaseWait time.Duration
	MaxIdleConns  int
}

// DefaultConfig returns sensible defaults for upstream calls.
func DefaultConfig() Config {
	return Config{
		Timeout:       10 * time.Second,
		MaxRetries:    3,
		RetryBaseWait: 200 * time.Millisecond,
		MaxIdleConns:  100,
	}
}

// Client wraps http.Client with retry-on-failure semantics. Requests are
// retried on transport errors and 5xx responses, with exponential backoff
// and jitter between attempts.
type Client struct {
	httpClient *http.Client
	cfg        Config
	logger     *slog.Logger
}

// New creates a retrying HTTP client.
func New(cfg Config, logger *slog.Logger) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		cfg:    cfg,
		logger: logger,
	}
}

// Do executes the request, retrying on transport errors and 5xx responses.
// The request body, if any, must be rewindable; callers should use the Get
// and Post helpers which buffer bodies for replay.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var (
		resp    *http.Response
		lastErr error
	)

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt)
			if c.logger != nil {
				c.logger.Warn("retrying upstream request",
					slog.String("method", req.Method),
					slog.String("url", req.URL.String()),
					slog.Int("attempt", attempt),
					slog.Duration("backoff", wait),
				)
			}
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(wait):
			}
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("rewind request body: %w", err)
				}
				req.Body = body
			}
		}

		resp, lastErr = c.httpClient.Do(req)
		if lastErr != nil {
			continue
		}
		if resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}

		lastErr = fmt.Errorf("upstream returned %d", resp.StatusCode)
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

// Get issues a GET request against the given URL.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.Do(req)
}

// Post issues a POST request with a JSON body against the given URL.
func (c *Client) Post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.Do(req)
}

func (c *Client) backoff(attempt int) time.Duration {
	base := c.cfg.RetryBaseWait << (attempt - 1)
	jitter := time.Duration(rand.Int64N(int64(base) / 2)) // #nosec G404 -- non-cryptographic jitter
	return base + jitter
}
