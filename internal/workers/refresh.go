package workers

import (
	"context"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/globaldeals/catalog-service/internal/feeds"
)

// ImportRunner runs one feed import end to end.
type ImportRunner interface {
	Import(ctx context.Context, platformSlug, filename string, content []byte) (*feeds.ImportResult, error)
}

// FeedFetcher downloads a published feed.
type FeedFetcher interface {
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

// Refresher periodically re-imports the configured platform feeds so
// the catalog tracks upstream price changes without manual uploads.
type Refresher struct {
	importer ImportRunner
	fetcher  FeedFetcher
	feeds    map[string]string
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
	logger   zerolog.Logger
}

// NewRefresher creates a feed refresher over the given platform -> feed
// URL map. It does nothing until Start is called.
func NewRefresher(importer ImportRunner, fetcher FeedFetcher, feedURLs map[string]string, interval time.Duration) *Refresher {
	return &Refresher{
		importer: importer,
		fetcher:  fetcher,
		feeds:    feedURLs,
		interval: interval,
		stopChan: make(chan struct{}),
		logger:   log.With().Str("component", "refresher").Logger(),
	}
}

// Start launches the refresh loop. The first pass runs immediately so a
// fresh deployment does not serve an empty catalog until the interval
// elapses.
func (r *Refresher) Start(ctx context.Context) {
	if r.interval <= 0 || len(r.feeds) == 0 {
		r.logger.Info().Msg("Feed refresh disabled")
		return
	}

	r.logger.Info().
		Dur("interval", r.interval).
		Int("feeds", len(r.feeds)).
		Msg("Starting feed refresher")

	r.wg.Add(1)
	go r.loop(ctx)
}

// Stop signals the loop to exit and waits for an in-flight pass.
func (r *Refresher) Stop() {
	close(r.stopChan)
	r.wg.Wait()
	r.logger.Info().Msg("Feed refresher stopped")
}

func (r *Refresher) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RefreshAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.RefreshAll(ctx)
		}
	}
}

// RefreshAll runs one import pass over every configured feed. A failing
// platform is logged and skipped; the others still refresh.
func (r *Refresher) RefreshAll(ctx context.Context) {
	for platform, url := range r.feeds {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		default:
		}

		result, err := r.refreshOne(ctx, platform, url)
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("platform", platform).
				Str("url", url).
				Msg("Feed refresh failed")
			continue
		}

		r.logger.Info().
			Str("platform", platform).
			Str("run_id", result.RunID).
			Int("imported", result.Imported).
			Int("updated", result.Updated).
			Int("failed", result.Failed).
			Msg("Feed refreshed")
	}
}

func (r *Refresher) refreshOne(ctx context.Context, platform, feedURL string) (*feeds.ImportResult, error) {
	content, err := r.fetcher.GetBytes(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	return r.importer.Import(ctx, platform, feedFilename(platform, feedURL), content)
}

// feedFilename derives the import filename from the feed URL so the
// parser picks the right format. Falls back to <platform>.csv when the
// URL has no usable path segment.
func feedFilename(platform, feedURL string) string {
	if u, err := url.Parse(feedURL); err == nil {
		if name := path.Base(u.Path); name != "." && name != "/" && name != "" {
			return name
		}
	}
	return platform + ".csv"
}
