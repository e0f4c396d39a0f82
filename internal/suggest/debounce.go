// Package suggest implements typeahead suggestion plumbing: a debouncer
// for bursty query streams and a per-client tracker that lets stale
// responses identify themselves.
//
// Both enforce the same rule: when queries race, only the most recently
// issued one may surface results.
package suggest

import (
	"context"
	"sync"
	"time"
)

// MinQueryLength is the shortest query worth suggesting on. Shorter
// input resolves to an empty result without touching the fetcher.
const MinQueryLength = 2

// Result is one completed suggestion lookup.
type Result struct {
	Query            string   `json:"query"`
	Suggestions      []string `json:"suggestions"`
	DetectedCategory string   `json:"detected_category,omitempty"`
}

// Fetcher resolves a query to suggestions.
type Fetcher func(ctx context.Context, query string) (Result, error)

// Debouncer coalesces a stream of queries, fetching only after the
// stream has been quiet for the configured delay. Each Query supersedes
// the previous one: pending timers are reset, in-flight fetches are
// canceled, and a completed fetch is delivered only if no newer query
// was issued while it ran.
type Debouncer struct {
	fetch   Fetcher
	deliver func(Result, error)
	delay   time.Duration

	mu       sync.Mutex
	seq      uint64
	timer    *time.Timer
	inflight context.CancelFunc
}

// NewDebouncer creates a Debouncer. deliver is called from a fetch
// goroutine for every query that survives debouncing, including the
// immediate empty result for too-short queries.
func NewDebouncer(delay time.Duration, fetch Fetcher, deliver func(Result, error)) *Debouncer {
	return &Debouncer{
		fetch:   fetch,
		deliver: deliver,
		delay:   delay,
	}
}

// Query submits the next query in the stream.
func (d *Debouncer) Query(ctx context.Context, query string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	seq := d.seq

	// Supersede whatever was pending or running.
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.inflight != nil {
		d.inflight()
		d.inflight = nil
	}

	if len([]rune(query)) < MinQueryLength {
		// Too short: resolve immediately, no fetch, no debounce.
		go d.deliver(Result{Query: query, Suggestions: []string{}}, nil)
		return
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.run(ctx, seq, query)
	})
}

// Stop cancels any pending or in-flight work.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++ // invalidate anything racing to deliver
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.inflight != nil {
		d.inflight()
		d.inflight = nil
	}
}

func (d *Debouncer) run(ctx context.Context, seq uint64, query string) {
	d.mu.Lock()
	if seq != d.seq {
		// A newer query arrived between the timer firing and now.
		d.mu.Unlock()
		return
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	d.inflight = cancel
	d.mu.Unlock()

	result, err := d.fetch(fetchCtx, query)
	cancel()

	d.mu.Lock()
	current := seq == d.seq
	if current && d.inflight != nil {
		d.inflight = nil
	}
	d.mu.Unlock()

	// A fetch that was superseded while running is discarded even
	// though it completed.
	if !current {
		return
	}

	result.Query = query
	if result.Suggestions == nil {
		result.Suggestions = []string{}
	}
	d.deliver(result, err)
}
