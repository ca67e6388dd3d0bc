package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"thomann-reviews/internal/metrics"
	"thomann-reviews/internal/types"
)

// HTTPClient provides HTTP functionality with request pacing and optional retries
type HTTPClient struct {
	client  *http.Client
	config  *types.Config
	logger  types.Logger
	limiter *rate.Limiter
}

// NewHTTPClient creates a new HTTP client with the given configuration
func NewHTTPClient(config *types.Config, logger types.Logger) *HTTPClient {
	client := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	limit := rate.Inf
	if config.RequestDelay > 0 {
		limit = rate.Every(config.RequestDelay)
	}

	return &HTTPClient{
		client:  client,
		config:  config,
		logger:  logger,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Get performs a GET request and returns the body converted to UTF-8.
// Transport failures and 429/5xx responses are retried up to MaxRetries times;
// any other non-2xx status fails immediately.
func (h *HTTPClient) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, &types.FetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
		}

		req.Header.Set("User-Agent", h.config.UserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

		h.logger.Debugf("Making request to %s (attempt %d/%d)", url, attempt+1, h.config.MaxRetries+1)

		start := time.Now()
		body, status, err := h.do(req)
		metrics.ObserveFetch(status, time.Since(start))
		if err == nil {
			h.logger.Debugf("Successfully retrieved %d bytes from %s", len(body), url)
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		if !retryable(status) {
			return nil, err
		}
		h.logger.Warnf("Request to %s failed (attempt %d): %v", url, attempt+1, err)
	}

	return nil, lastErr
}

func (h *HTTPClient) do(req *http.Request) ([]byte, int, error) {
	url := req.URL.String()

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, 0, &types.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, resp.StatusCode, &types.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &types.FetchError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return toUTF8(raw, resp.Header.Get("Content-Type")), resp.StatusCode, nil
}

// toUTF8 converts body using the charset from contentType or the document's
// meta tags. Bodies that cannot be converted are returned unchanged.
func toUTF8(body []byte, contentType string) []byte {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return decoded
}

// status 0 is a transport failure
func retryable(status int) bool {
	return status == 0 || status == http.StatusTooManyRequests || status >= 500
}

// Close releases idle connections
func (h *HTTPClient) Close() {
	h.client.CloseIdleConnections()
}
