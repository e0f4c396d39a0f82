package suggest

import (
	"sync"
	"time"
)

// Tracker assigns sequence numbers to suggestion requests per client so
// a response can detect it has been superseded by a newer request from
// the same client. HTTP responses cannot be recalled, but a superseded
// one can return empty instead of stale suggestions.
type Tracker struct {
	mu      sync.Mutex
	clients map[string]*clientSeq
}

type clientSeq struct {
	seq      uint64
	lastSeen time.Time
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{clients: make(map[string]*clientSeq)}
}

// Begin records a new request for the client and returns its sequence
// number.
func (t *Tracker) Begin(clientKey string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.clients[clientKey]
	if !ok {
		c = &clientSeq{}
		t.clients[clientKey] = c
	}
	c.seq++
	c.lastSeen = time.Now()

	// Opportunistic cleanup keeps the map from growing unbounded.
	if len(t.clients) > 10000 {
		t.evictStale(5 * time.Minute)
	}

	return c.seq
}

// IsCurrent reports whether seq is still the newest request for the
// client.
func (t *Tracker) IsCurrent(clientKey string, seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.clients[clientKey]
	return ok && c.seq == seq
}

func (t *Tracker) evictStale(age time.Duration) {
	cutoff := time.Now().Add(-age)
	for key, c := range t.clients {
		if c.lastSeen.Before(cutoff) {
			delete(t.clients, key)
		}
	}
}
