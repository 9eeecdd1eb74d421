// Package fetch provides the rate-limited HTTP client used by source
// adapters. Each adapter owns exactly one Client and with it one logical
// rate budget; the Client is not safe for concurrent use.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"jobscout/internal/model"
)

const (
	defaultMinDelay   = 2 * time.Second
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultBaseDelay  = 2 * time.Second
	maxBackoff        = 30 * time.Second

	// rotateEvery controls identity rotation cadence: a new browser
	// signature every N requests, when rotation is enabled.
	rotateEvery = 10

	// pacingMultiplier widens the inter-request interval after a 429.
	// The widened interval persists for the rest of the run.
	pacingMultiplier = 2
)

// Config controls pacing, timeouts, and retry behavior for one Client.
// Zero values fall back to the defaults above.
type Config struct {
	MinDelay        time.Duration // minimum gap between consecutive requests
	Timeout         time.Duration // per-request timeout
	MaxRetries      int           // additional attempts after the first failure
	BaseDelay       time.Duration // delay before the first retry, doubled each attempt
	RotateUserAgent bool          // rotate browser signature every rotateEvery requests
	Headers         map[string]string
}

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client issues paced, retried HTTP requests on behalf of a single adapter.
type Client struct {
	http       *http.Client
	minDelay   time.Duration
	maxRetries int
	baseDelay  time.Duration
	rotate     bool
	headers    map[string]string

	userAgent    string
	lastRequest  time.Time
	requestCount int

	logger *slog.Logger
}

// New creates a Client with the given pacing and retry configuration.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = defaultMinDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	return &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		minDelay:   cfg.MinDelay,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		rotate:     cfg.RotateUserAgent,
		headers:    cfg.Headers,
		userAgent:  randomUserAgent(),
		logger:     logger,
	}
}

// MinDelay returns the current inter-request interval. It grows after 429
// responses, so callers can observe the widened pacing.
func (c *Client) MinDelay() time.Duration {
	return c.minDelay
}

// Get issues a paced GET request with optional query parameters.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodGet, rawURL, params, nil)
}

// GetJSON issues a GET request and decodes the JSON response into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, v any) error {
	resp, err := c.Do(ctx, http.MethodGet, rawURL, params, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode response from %s: %w", rawURL, err)
	}
	return nil
}

// PostJSON issues a POST request with a JSON body and decodes the JSON
// response into v.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body any, v any) error {
	resp, err := c.Do(ctx, http.MethodPost, rawURL, nil, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode response from %s: %w", rawURL, err)
	}
	return nil
}

// Do issues a request, enforcing the inter-request interval and retrying
// transient failures with exponential backoff. A 403 is classified as bot
// detection and surfaced immediately; a 429 widens this client's pacing
// interval before the request is retried within the same attempt budget.
func (c *Client) Do(ctx context.Context, method, rawURL string, params url.Values, body any) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoffDelay(attempt, lastErr)
			c.logger.Warn("retrying after transient error",
				"url", rawURL,
				"attempt", attempt,
				"max_retries", c.maxRetries,
				"delay", delay,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		resp, err := c.attempt(ctx, method, rawURL, params, body)
		if err == nil {
			return resp, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// attempt makes a single paced request and classifies the outcome.
func (c *Client) attempt(ctx context.Context, method, rawURL string, params url.Values, body any) (*Response, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	if c.rotate && c.requestCount%rotateEvery == 0 {
		c.userAgent = randomUserAgent()
	}
	c.requestCount++

	reqURL := rawURL
	if len(params) > 0 {
		reqURL = rawURL + "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body for %s: %w", rawURL, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.http.Do(req)
	c.lastRequest = time.Now()
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", rawURL, err)
	}

	switch {
	case httpResp.StatusCode == http.StatusForbidden:
		c.logger.Warn("access forbidden, treating as bot detection", "url", rawURL)
		return nil, &model.HTTPError{StatusCode: httpResp.StatusCode, Err: model.ErrBotDetected}
	case httpResp.StatusCode == http.StatusTooManyRequests:
		c.minDelay *= pacingMultiplier
		c.logger.Warn("rate limited, widening request interval",
			"url", rawURL,
			"min_delay", c.minDelay,
		)
		return nil, &model.HTTPError{
			StatusCode: httpResp.StatusCode,
			RetryAfter: parseRetryAfter(httpResp.Header.Get("Retry-After")),
		}
	case httpResp.StatusCode < 200 || httpResp.StatusCode >= 300:
		return nil, &model.HTTPError{StatusCode: httpResp.StatusCode}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

// pace blocks until the inter-request interval has elapsed since the
// previous request. Returns an error if the context is cancelled while
// waiting.
func (c *Client) pace(ctx context.Context) error {
	if c.lastRequest.IsZero() {
		return nil
	}
	elapsed := time.Since(c.lastRequest)
	if elapsed >= c.minDelay {
		return nil
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limit wait: %w", ctx.Err())
	case <-time.After(c.minDelay - elapsed):
		return nil
	}
}

// backoffDelay computes the delay for a given attempt with ±30% jitter,
// capped at maxBackoff. A Retry-After duration from a 429 takes precedence.
func (c *Client) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	if delay > maxBackoff {
		delay = maxBackoff
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable returns true if the error represents a transient failure worth
// retrying. Bot detection and other 4xx protocol failures are final.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
		if httpErr.StatusCode >= 500 {
			return true
		}
		return false
	}

	// Non-HTTP errors (network, DNS, connection resets) are retryable.
	return true
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// Close releases idle connections held by the underlying transport.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}
