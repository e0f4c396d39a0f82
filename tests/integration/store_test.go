package integration

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/globaldeals/catalog-service/internal/catalog"
	"github.com/globaldeals/catalog-service/internal/compare"
	"github.com/globaldeals/catalog-service/internal/database"
	"github.com/globaldeals/catalog-service/internal/feeds"
)

// startStore spins up a disposable Postgres and returns a schema-ready
// Store. Skips when Docker is not available.
func startStore(t *testing.T) *database.Store {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("catalog"),
		postgres.WithUsername("catalog"),
		postgres.WithPassword("catalog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping, could not start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := database.NewStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

func seedProduct(t *testing.T, store *database.Store, name, category string, offers []compare.Offer) *catalog.Product {
	t.Helper()
	p := &catalog.Product{
		Name:     name,
		Category: category,
		Offers:   offers,
	}
	require.NoError(t, store.UpsertProduct(context.Background(), p))
	return p
}

func TestStoreProductLifecycle(t *testing.T) {
	store := startStore(t)
	ctx := context.Background()

	orig := int64(2599)
	p := seedProduct(t, store, "Wireless Earbuds", "Electronics", []compare.Offer{
		{Platform: "aliexpress", Price: 1299, OriginalPrice: &orig, InStock: true, OfferURL: "https://ali.example/e"},
		{Platform: "temu", Price: 1499, InStock: true},
	})
	seedProduct(t, store, "Desk Lamp", "Home", []compare.Offer{
		{Platform: "temu", Price: 899, InStock: true},
	})

	// The upsert assigned an ID and recomputed the denormalized fields.
	require.NotEmpty(t, p.ID)
	assert.Equal(t, int64(1299), p.BestPrice)
	assert.Equal(t, "electronics", p.CategorySlug)

	got, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wireless Earbuds", got.Name)
	require.Len(t, got.Offers, 2)
	assert.Equal(t, "aliexpress", got.BestPlatform)

	_, err = store.GetProduct(ctx, "prd_missing")
	assert.ErrorIs(t, err, database.ErrNotFound)

	// Category filter.
	products, total, err := store.ListProducts(ctx, database.ProductFilter{CategorySlug: "home"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "Desk Lamp", products[0].Name)

	// Platform filter matches inside the offers JSONB.
	products, _, err = store.ListProducts(ctx, database.ProductFilter{Platform: "aliexpress"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Wireless Earbuds", products[0].Name)

	// Price sort.
	products, _, err = store.ListProducts(ctx, database.ProductFilter{Sort: "price_asc"})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Desk Lamp", products[0].Name)

	categories, err := store.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}

func TestStoreSuggestAndSettings(t *testing.T) {
	store := startStore(t)
	ctx := context.Background()

	for _, name := range []string{"Wireless Earbuds", "Wireless Charger", "Wired Headphones"} {
		seedProduct(t, store, name, "Electronics", []compare.Offer{
			{Platform: "temu", Price: 999, InStock: true},
		})
	}

	names, category, err := store.Suggest(ctx, "wireless", 8)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Wireless Earbuds", "Wireless Charger"}, names)
	assert.Equal(t, "Electronics", category)

	// Settings round trip; the first read serves defaults.
	site, err := store.SiteSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Global Deals", site.SiteName)

	site.SiteName = "Deal Hunter"
	site.MaintenanceMode = true
	require.NoError(t, store.SaveSiteSettings(ctx, site))

	site, err = store.SiteSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Deal Hunter", site.SiteName)
	assert.True(t, site.MaintenanceMode)

	affiliate := catalog.AffiliateSettings{
		Tags:          map[string]string{"temu": "t-1"},
		TrackingParam: "aff",
	}
	require.NoError(t, store.SaveAffiliateSettings(ctx, affiliate))
	affiliate, err = store.AffiliateSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t-1", affiliate.Tags["temu"])
}

func TestFeedImportEndToEnd(t *testing.T) {
	store := startStore(t)
	ctx := context.Background()

	importer := feeds.NewImporter(store)
	feed := "ProductId,Product Title,Image Url,Discount Price,Original Price,Promotion Link\n" +
		"100,Wireless Earbuds,https://img.example/e.jpg,US $12.99,US $25.99,https://ali.example/e\n" +
		"101,Desk Lamp,https://img.example/l.jpg,9.50,,https://ali.example/l\n"

	result, err := importer.Import(ctx, "aliexpress", "feed.csv", []byte(feed))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Failed)

	// Re-importing updates instead of duplicating.
	result, err = importer.Import(ctx, "aliexpress", "feed.csv", []byte(feed))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 2, result.Updated)

	product, err := store.FindBySourceID(ctx, "aliexpress", "100")
	require.NoError(t, err)
	assert.Equal(t, "Wireless Earbuds", product.Name)
	assert.Equal(t, int64(1299), product.BestPrice)

	runs, err := store.ListFeedRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, database.FeedRunCompleted, runs[0].Status)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalProducts)
	assert.Equal(t, 2, stats.OffersByPlatform["aliexpress"])
	assert.NotNil(t, stats.LastImportAt)
}
