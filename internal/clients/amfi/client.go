// Package amfi provides a client for the AMFI NAV report download
package amfi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/navsync/internal/common"
	"github.com/bobmcallan/navsync/internal/date"
	"github.com/bobmcallan/navsync/internal/interfaces"
)

const (
	DefaultTimeout    = 120 * time.Second
	DefaultAttempts   = 3
	DefaultRetryDelay = 60 * time.Second
)

// Sleeper waits between attempts. It returns early with ctx.Err() when ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// outcome classifies a single attempt.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeNotAvailable
	outcomeRetryable
	outcomePermanent
)

// Client fetches one day's NAV report
type Client struct {
	endpoint   Endpoint
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	attempts   int
	retryDelay time.Duration
	sleep      Sleeper
	userAgent  string
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client (its Timeout is kept)
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRetry sets the attempt budget and the fixed delay between attempts
func WithRetry(attempts int, delay time.Duration) ClientOption {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// WithSleeper replaces the wait between attempts
func WithSleeper(s Sleeper) ClientOption {
	return func(c *Client) {
		c.sleep = s
	}
}

// WithRateLimit caps requests per second; zero or less disables the limiter
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for the given endpoint
func NewClient(endpoint Endpoint, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:     common.NewSilentLogger(),
		attempts:   DefaultAttempts,
		retryDelay: DefaultRetryDelay,
		sleep:      sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch downloads the report for day. It returns ErrDataNotAvailable when the
// upstream has nothing for the date, a *FetchExhaustedError once the attempt
// budget is spent on transient failures, and an *APIError for any other status.
func (c *Client) Fetch(ctx context.Context, day date.Date) ([]byte, error) {
	reqURL := c.endpoint.Resolve(day)

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		body, kind, err := c.try(ctx, reqURL)
		switch kind {
		case outcomeSuccess:
			c.logger.Debug().
				Str("date", day.String()).
				Int("attempt", attempt).
				Int("bytes", len(body)).
				Msg("AMFI report fetched")
			return body, nil
		case outcomeNotAvailable:
			c.logger.Info().Str("date", day.String()).Err(err).Msg("AMFI report not published")
			return nil, fmt.Errorf("%s: %w", day, ErrDataNotAvailable)
		case outcomePermanent:
			return nil, err
		}

		lastErr = err
		c.logger.Warn().
			Str("date", day.String()).
			Int("attempt", attempt).
			Int("attempts", c.attempts).
			Err(err).
			Msg("AMFI fetch attempt failed")

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < c.attempts {
			if err := c.sleep(ctx, c.retryDelay); err != nil {
				return nil, err
			}
		}
	}

	return nil, &FetchExhaustedError{Attempts: c.attempts, Last: lastErr}
}

// try performs one GET and classifies the result.
func (c *Client) try(ctx context.Context, reqURL string) ([]byte, outcome, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, outcomePermanent, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, outcomePermanent, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug().Str("url", reqURL).Msg("AMFI request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, outcomePermanent, err
		}
		return nil, outcomeRetryable, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, outcomeRetryable, fmt.Errorf("failed to read response: %w", err)
	}

	kind := classifyStatus(resp.StatusCode)
	switch kind {
	case outcomeSuccess:
		if len(bytes.TrimSpace(body)) == 0 {
			return nil, outcomeNotAvailable, errors.New("empty response body")
		}
		return body, outcomeSuccess, nil
	case outcomeNotAvailable:
		return nil, kind, fmt.Errorf("status %d", resp.StatusCode)
	default:
		return nil, kind, &APIError{
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body), 200),
			URL:        reqURL,
		}
	}
}

func classifyStatus(code int) outcome {
	switch {
	case code == http.StatusNoContent, code == http.StatusNotFound, code == http.StatusGone:
		return outcomeNotAvailable
	case code >= 200 && code < 300:
		return outcomeSuccess
	case code == http.StatusRequestTimeout, code == http.StatusTooEarly, code == http.StatusTooManyRequests:
		return outcomeRetryable
	case code >= 500:
		return outcomeRetryable
	default:
		return outcomePermanent
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ interfaces.NavFetcher = (*Client)(nil)
