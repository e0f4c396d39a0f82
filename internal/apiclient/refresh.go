package apiclient

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/globaldeals/catalog-service/internal/compare"
)

// maxConcurrentFetches bounds parallel upstream requests; the shared
// limiter still throttles the aggregate rate.
const maxConcurrentFetches = 4

// FetchAllOffers fetches every platform's offer endpoint concurrently
// and returns the normalized set per platform. One failing platform
// fails the whole refresh; partial results are not useful for a
// comparison.
func (c *Client) FetchAllOffers(ctx context.Context, urls map[string]string) (map[string]compare.ComparisonSet, error) {
	results := make(map[string]compare.ComparisonSet, len(urls))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for platform, url := range urls {
		g.Go(func() error {
			set, err := c.FetchOffers(ctx, url)
			if err != nil {
				return err
			}
			mu.Lock()
			results[platform] = set
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
