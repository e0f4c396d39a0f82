package apiclient

import (
	"math"
	"math/rand"
	"strconv"
	"time"
)

// FetchRetryError represents an error when all retry attempts are exhausted
type FetchRetryError struct {
	URL        string
	Attempts   int
	LastStatus int
	LastError  error
}

func (e *FetchRetryError) Error() string {
	msg := "failed to fetch " + e.URL + " after " + strconv.Itoa(e.Attempts) + " attempts"
	if e.LastStatus != 0 {
		msg += " (HTTP " + strconv.Itoa(e.LastStatus) + ")"
	}
	if e.LastError != nil {
		msg += ": " + e.LastError.Error()
	}
	return msg
}

func (e *FetchRetryError) Unwrap() error {
	return e.LastError
}

// isRetryableStatus checks if an HTTP status code is retryable
// Retryable: 429, 500-599
func isRetryableStatus(status int) bool {
	return status == 429 || (status >= 500 && status < 600)
}

// backoff calculates exponential backoff delay for a given attempt
// with jitter (0-25%) to prevent thundering herd
func backoff(attempt int, config Config) time.Duration {
	exponential := float64(config.InitialBackoff) * math.Pow(2.0, float64(attempt))
	capped := math.Min(exponential, float64(config.MaxBackoff))
	jitter := rand.Float64() * 0.25 * capped
	return time.Duration(capped + jitter)
}

// rateLimitBackoff calculates backoff for HTTP 429 responses. Respects
// Retry-After when the server sends one; otherwise backs off harder
// than the standard curve (3x multiplier).
func rateLimitBackoff(attempt int, config Config, retryAfter string) time.Duration {
	if retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
			jitter := time.Duration(rand.Int63n(int64(time.Second)))
			return time.Duration(seconds)*time.Second + jitter
		}
	}

	exponential := float64(config.InitialBackoff) * math.Pow(3.0, float64(attempt))
	capped := math.Min(exponential, float64(config.MaxBackoff))
	jitter := rand.Float64() * 0.25 * capped
	return time.Duration(capped + jitter)
}
