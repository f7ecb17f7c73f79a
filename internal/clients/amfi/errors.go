package amfi

import (
	"errors"
	"fmt"
)

// ErrDataNotAvailable means the upstream has no report for the requested date,
// typically a market holiday. It is never retried.
var ErrDataNotAvailable = errors.New("no NAV data published for date")

// ErrFetchExhausted matches any FetchExhaustedError.
var ErrFetchExhausted = errors.New("fetch attempts exhausted")

// APIError is a non-retryable HTTP status from the upstream.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("AMFI API error: %s (status: %d, url: %s)", e.Message, e.StatusCode, e.URL)
}

// FetchExhaustedError is returned when every attempt failed with a transient error.
type FetchExhaustedError struct {
	Attempts int
	Last     error
}

func (e *FetchExhaustedError) Error() string {
	return fmt.Sprintf("fetch failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *FetchExhaustedError) Unwrap() error { return e.Last }

func (e *FetchExhaustedError) Is(target error) bool { return target == ErrFetchExhausted }
