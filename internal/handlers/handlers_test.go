package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/globaldeals/catalog-service/internal/catalog"
	"github.com/globaldeals/catalog-service/internal/compare"
	"github.com/globaldeals/catalog-service/internal/database"
	"github.com/globaldeals/catalog-service/internal/feeds"
	"github.com/globaldeals/catalog-service/internal/suggest"
)

// fakeStore backs handler tests without a database.
type fakeStore struct {
	products   map[string]*catalog.Product
	categories []catalog.Category
	names      []string
	category   string
	stats      *database.CatalogStats
	lastFilter database.ProductFilter

	site      catalog.SiteSettings
	affiliate catalog.AffiliateSettings

	feedRuns []database.FeedRun

	suggestHook func() // runs inside Suggest, before returning

	err error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: make(map[string]*catalog.Product),
		site:     catalog.DefaultSiteSettings(),
	}
}

func (f *fakeStore) ListProducts(ctx context.Context, filter database.ProductFilter) ([]catalog.Product, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	f.lastFilter = filter
	out := make([]catalog.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (f *fakeStore) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakeStore) Categories(ctx context.Context) ([]catalog.Category, error) {
	return f.categories, f.err
}

func (f *fakeStore) Suggest(ctx context.Context, query string, limit int) ([]string, string, error) {
	if f.suggestHook != nil {
		f.suggestHook()
	}
	return f.names, f.category, f.err
}

func (f *fakeStore) Stats(ctx context.Context) (*database.CatalogStats, error) {
	return f.stats, f.err
}

func (f *fakeStore) DeleteProduct(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.products[id]; !ok {
		return database.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeStore) SiteSettings(ctx context.Context) (catalog.SiteSettings, error) {
	return f.site, f.err
}

func (f *fakeStore) SaveSiteSettings(ctx context.Context, settings catalog.SiteSettings) error {
	f.site = settings
	return f.err
}

func (f *fakeStore) AffiliateSettings(ctx context.Context) (catalog.AffiliateSettings, error) {
	return f.affiliate, f.err
}

func (f *fakeStore) SaveAffiliateSettings(ctx context.Context, settings catalog.AffiliateSettings) error {
	f.affiliate = settings
	return f.err
}

func (f *fakeStore) ListFeedRuns(ctx context.Context, limit int) ([]database.FeedRun, error) {
	return f.feedRuns, f.err
}

func (f *fakeStore) GetFeedRun(ctx context.Context, id string) (*database.FeedRun, error) {
	for i := range f.feedRuns {
		if f.feedRuns[i].ID == id {
			return &f.feedRuns[i], nil
		}
	}
	return nil, database.ErrNotFound
}

// fakeImporter records the last import call.
type fakeImporter struct {
	lastPlatform string
	lastFilename string
	lastContent  []byte
	result       *feeds.ImportResult
	err          error
}

func (f *fakeImporter) Import(ctx context.Context, platformSlug, filename string, content []byte) (*feeds.ImportResult, error) {
	f.lastPlatform = platformSlug
	f.lastFilename = filename
	f.lastContent = content
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &feeds.ImportResult{RunID: "run_test", Platform: platformSlug}, nil
}

// fakeFetcher serves canned bytes for URL imports.
type fakeFetcher struct {
	content []byte
	lastURL string
	err     error
}

func (f *fakeFetcher) GetBytes(ctx context.Context, url string) ([]byte, error) {
	f.lastURL = url
	if f.err != nil {
		return nil, f.err
	}
	return f.content, nil
}

type testEnv struct {
	store    *fakeStore
	importer *fakeImporter
	fetcher  *fakeFetcher
	tracker  *suggest.Tracker
	router   *gin.Engine
}

func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		store:    newFakeStore(),
		importer: &fakeImporter{},
		fetcher:  &fakeFetcher{},
		tracker:  suggest.NewTracker(),
	}

	h := New(Deps{
		Store:    env.store,
		Settings: env.store,
		Runs:     env.store,
		Importer: env.importer,
		Fetcher:  env.fetcher,
		Tracker:  env.tracker,
		Ping:     func(ctx context.Context) error { return nil },
	})

	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
	r.GET("/products/search/suggestions", h.Suggestions)
	r.GET("/categories", h.Categories)
	r.GET("/site-settings", h.SiteSettings)
	r.GET("/redirect/:productId/:platform", h.Redirect)
	r.GET("/admin/stats", h.Stats)
	r.GET("/admin/settings", h.GetAdminSettings)
	r.PUT("/admin/settings", h.PutAdminSettings)
	r.PUT("/admin/site-settings", h.PutSiteSettings)
	r.DELETE("/admin/products/:id", h.DeleteProduct)
	r.POST("/admin/feeds/import", h.ImportFeed)
	r.GET("/admin/feeds/runs", h.ListFeedRuns)
	r.GET("/admin/feeds/runs/:id", h.GetFeedRun)
	env.router = r

	return env
}

func (e *testEnv) addProduct(p *catalog.Product) {
	p.RecomputeBest()
	e.store.products[p.ID] = p
}

func sampleProduct() *catalog.Product {
	orig := int64(2599)
	return &catalog.Product{
		ID:       "prd_wireless",
		Name:     "Wireless Earbuds",
		NameI18n: map[string]string{"de": "Kabellose Ohrhörer"},
		Category: "Electronics", CategorySlug: "electronics",
		Offers: []compare.Offer{
			{Platform: "temu", Price: 1499, InStock: true, OfferURL: "https://temu.example/e"},
			{Platform: "aliexpress", Price: 1299, OriginalPrice: &orig, InStock: true, OfferURL: "https://ali.example/e"},
			{Platform: "shein", Price: 1799, InStock: false, OfferURL: "https://shein.example/e"},
		},
	}
}

var errStore = errors.New("store exploded")
