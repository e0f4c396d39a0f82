package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/globaldeals/catalog-service/internal/feeds"
)

type fakeImporter struct {
	calls []string
	err   map[string]error
}

func (f *fakeImporter) Import(ctx context.Context, platformSlug, filename string, content []byte) (*feeds.ImportResult, error) {
	f.calls = append(f.calls, platformSlug+":"+filename)
	if err := f.err[platformSlug]; err != nil {
		return nil, err
	}
	return &feeds.ImportResult{RunID: "run_" + platformSlug, Imported: len(content)}, nil
}

type fakeFetcher struct {
	payloads map[string][]byte
}

func (f *fakeFetcher) GetBytes(ctx context.Context, url string) ([]byte, error) {
	payload, ok := f.payloads[url]
	if !ok {
		return nil, errors.New("fetch failed")
	}
	return payload, nil
}

func TestRefreshAll(t *testing.T) {
	importer := &fakeImporter{}
	fetcher := &fakeFetcher{payloads: map[string][]byte{
		"https://cdn.example/ali/feed.xlsx?v=2": []byte("rows"),
		"https://cdn.example/temu/":             []byte("rows"),
	}}

	r := NewRefresher(importer, fetcher, map[string]string{
		"aliexpress": "https://cdn.example/ali/feed.xlsx?v=2",
		"temu":       "https://cdn.example/temu/",
	}, time.Hour)

	r.RefreshAll(context.Background())

	require.Len(t, importer.calls, 2)
	assert.Contains(t, importer.calls, "aliexpress:feed.xlsx")
	assert.Contains(t, importer.calls, "temu:temu.csv")
}

func TestRefreshAllSkipsFailingPlatform(t *testing.T) {
	importer := &fakeImporter{err: map[string]error{"shein": errors.New("parse error")}}
	fetcher := &fakeFetcher{payloads: map[string][]byte{
		"https://cdn.example/shein.csv": []byte("bad"),
		"https://cdn.example/temu.csv":  []byte("rows"),
	}}

	r := NewRefresher(importer, fetcher, map[string]string{
		"shein": "https://cdn.example/shein.csv",
		"temu":  "https://cdn.example/temu.csv",
	}, time.Hour)

	r.RefreshAll(context.Background())

	// Both platforms were attempted despite the shein failure.
	assert.Len(t, importer.calls, 2)
}

func TestStartDisabledWithoutFeeds(t *testing.T) {
	r := NewRefresher(&fakeImporter{}, &fakeFetcher{}, nil, time.Hour)
	r.Start(context.Background())
	// Stop must not block when the loop never started.
	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked with no running loop")
	}
}
