// Package handlers wires the HTTP surface: public catalog endpoints and
// the Basic-auth admin endpoints. Handlers depend on narrow interfaces so
// tests run against in-memory fakes.
package handlers

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/globaldeals/catalog-service/internal/catalog"
	"github.com/globaldeals/catalog-service/internal/database"
	"github.com/globaldeals/catalog-service/internal/feeds"
	"github.com/globaldeals/catalog-service/internal/suggest"
)

// ProductStore is the catalog read surface handlers query.
type ProductStore interface {
	ListProducts(ctx context.Context, filter database.ProductFilter) ([]catalog.Product, int, error)
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	Categories(ctx context.Context) ([]catalog.Category, error)
	Suggest(ctx context.Context, query string, limit int) ([]string, string, error)
	Stats(ctx context.Context) (*database.CatalogStats, error)
	DeleteProduct(ctx context.Context, id string) error
}

// SettingsStore persists site and affiliate settings.
type SettingsStore interface {
	SiteSettings(ctx context.Context) (catalog.SiteSettings, error)
	SaveSiteSettings(ctx context.Context, settings catalog.SiteSettings) error
	AffiliateSettings(ctx context.Context) (catalog.AffiliateSettings, error)
	SaveAffiliateSettings(ctx context.Context, settings catalog.AffiliateSettings) error
}

// FeedRunStore reads feed import history.
type FeedRunStore interface {
	ListFeedRuns(ctx context.Context, limit int) ([]database.FeedRun, error)
	GetFeedRun(ctx context.Context, id string) (*database.FeedRun, error)
}

// ImportRunner runs one feed import end to end.
type ImportRunner interface {
	Import(ctx context.Context, platformSlug, filename string, content []byte) (*feeds.ImportResult, error)
}

// FeedFetcher downloads a remote feed for URL-based imports.
type FeedFetcher interface {
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

// Deps collects everything the handlers need. Ping and Fetcher are
// optional; nil disables the database health probe and URL imports.
type Deps struct {
	Store    ProductStore
	Settings SettingsStore
	Runs     FeedRunStore
	Importer ImportRunner
	Fetcher  FeedFetcher
	Tracker  *suggest.Tracker
	Ping     func(ctx context.Context) error
}

// Handlers holds the dependencies shared by all endpoints.
type Handlers struct {
	store    ProductStore
	settings SettingsStore
	runs     FeedRunStore
	importer ImportRunner
	fetcher  FeedFetcher
	tracker  *suggest.Tracker
	ping     func(ctx context.Context) error
	logger   zerolog.Logger
}

// New creates the handler set.
func New(deps Deps) *Handlers {
	tracker := deps.Tracker
	if tracker == nil {
		tracker = suggest.NewTracker()
	}
	return &Handlers{
		store:    deps.Store,
		settings: deps.Settings,
		runs:     deps.Runs,
		importer: deps.Importer,
		fetcher:  deps.Fetcher,
		tracker:  tracker,
		ping:     deps.Ping,
		logger:   log.With().Str("component", "handlers").Logger(),
	}
}
