// Package apiclient fetches price data from the upstream offers API with
// rate limiting and retry.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/globaldeals/catalog-service/internal/compare"
	"github.com/globaldeals/catalog-service/internal/telemetry"
)

// ErrUnauthorized is returned when the upstream rejects our credentials.
var ErrUnauthorized = errors.New("upstream rejected credentials")

const userAgent = "GlobalDeals-CatalogService/1.0"

// Config holds client tuning.
type Config struct {
	RequestsPerSecond float64       `json:"requestsPerSecond"`
	Burst             int           `json:"burst"`
	MaxRetries        int           `json:"maxRetries"`
	InitialBackoff    time.Duration `json:"initialBackoff"`
	MaxBackoff        time.Duration `json:"maxBackoff"`
	Timeout           time.Duration `json:"timeout"`
}

// DefaultConfig returns the default client configuration
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 2,
		Burst:             1,
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		Timeout:           30 * time.Second,
	}
}

// Client is an HTTP client with rate limiting and retry logic
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	config     Config
	apiKey     string
}

// NewClient creates a new client. An empty apiKey sends unauthenticated
// requests.
func NewClient(config Config, apiKey string) *Client {
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = DefaultConfig().RequestsPerSecond
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = DefaultConfig().InitialBackoff
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = DefaultConfig().MaxBackoff
	}
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		config:     config,
		apiKey:     apiKey,
	}
}

// Get performs a GET request with rate limiting and retry logic
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		// Throttle to respect the upstream rate limit
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < c.config.MaxRetries {
				if err := sleepCtx(ctx, backoff(attempt, c.config)); err != nil {
					return nil, err
				}
				continue
			}
			break
		}

		lastStatus = resp.StatusCode

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			resp.Body.Close()
			return nil, fmt.Errorf("%s: %w", url, ErrUnauthorized)
		}

		// Non-retryable status - fail immediately
		if !isRetryableStatus(resp.StatusCode) {
			resp.Body.Close()
			return nil, &FetchRetryError{URL: url, Attempts: attempt + 1, LastStatus: resp.StatusCode}
		}

		if attempt == c.config.MaxRetries {
			resp.Body.Close()
			break
		}

		var delay time.Duration
		if resp.StatusCode == http.StatusTooManyRequests {
			delay = rateLimitBackoff(attempt, c.config, resp.Header.Get("Retry-After"))
		} else {
			delay = backoff(attempt, c.config)
		}
		resp.Body.Close()

		if err := sleepCtx(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, &FetchRetryError{
		URL:        url,
		Attempts:   c.config.MaxRetries + 1,
		LastStatus: lastStatus,
		LastError:  lastErr,
	}
}

// GetBytes performs a GET request and returns the response body as bytes
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// FetchOffers fetches a URL and normalizes whatever offer payload shape
// the upstream returned. Malformed bodies yield an empty set, not an
// error; transport and auth failures still error.
func (c *Client) FetchOffers(ctx context.Context, url string) (compare.ComparisonSet, error) {
	data, err := c.GetBytes(ctx, url)
	if err != nil {
		telemetry.RecordUpstreamFetchError(fetchErrorKind(err))
		return compare.ComparisonSet{Offers: []compare.Offer{}}, err
	}
	return compare.NormalizeJSON(data), nil
}

func fetchErrorKind(err error) string {
	var retryErr *FetchRetryError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.As(err, &retryErr):
		return "retry_exhausted"
	default:
		return "other"
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
