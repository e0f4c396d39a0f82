package feeds

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/globaldeals/catalog-service/internal/catalog"
	"github.com/globaldeals/catalog-service/internal/compare"
	"github.com/globaldeals/catalog-service/internal/database"
)

// memStore is an in-memory Store for importer tests.
type memStore struct {
	products map[string]*catalog.Product // keyed platform+"/"+externalID
	finished []string                    // statuses passed to FinishFeedRun
	imported int
	updated  int
	failed   int
}

func newMemStore() *memStore {
	return &memStore{products: make(map[string]*catalog.Product)}
}

func (m *memStore) FindBySourceID(_ context.Context, platform, externalID string) (*catalog.Product, error) {
	if p, ok := m.products[platform+"/"+externalID]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, database.ErrNotFound
}

func (m *memStore) UpsertProduct(_ context.Context, p *catalog.Product) error {
	if p.ID == "" {
		p.ID = "prd_" + p.Name
	}
	for platform, ext := range p.SourceIDs {
		m.products[platform+"/"+ext] = p
	}
	return nil
}

func (m *memStore) StartFeedRun(_ context.Context, _, _, _ string) (string, error) {
	return "run_test", nil
}

func (m *memStore) FinishFeedRun(_ context.Context, _, status string, imported, updated, failed int, _ []string) error {
	m.finished = append(m.finished, status)
	m.imported, m.updated, m.failed = imported, updated, failed
	return nil
}

func TestImportCreatesProducts(t *testing.T) {
	store := newMemStore()
	importer := NewImporter(store)

	content := []byte(`ProductId,Product Title,Image Url,Discount Price,Original Price,Promotion Link
100,Wireless Earbuds,https://img.example.com/1.jpg,US $12.99,US $25.99,https://s.click.example.com/1
101,USB Hub,https://img.example.com/2.jpg,US $8.50,,https://s.click.example.com/2
`)

	result, err := importer.Import(context.Background(), "aliexpress", "export.csv", content)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, []string{database.FeedRunCompleted}, store.finished)

	p, err := store.FindBySourceID(context.Background(), "aliexpress", "100")
	require.NoError(t, err)
	assert.Equal(t, "Wireless Earbuds", p.Name)
	assert.Equal(t, int64(1299), p.BestPrice)
	assert.Equal(t, "aliexpress", p.BestPlatform)
	require.Len(t, p.Offers, 1)
	assert.Equal(t, "https://s.click.example.com/1", p.Offers[0].OfferURL)
}

func TestImportUpdatesExistingOffer(t *testing.T) {
	store := newMemStore()
	existing := &catalog.Product{
		Name:      "Wireless Earbuds",
		Image:     "https://cdn.example.com/curated.jpg",
		Category:  "Electronics",
		SourceIDs: map[string]string{"aliexpress": "100"},
		Offers: []compare.Offer{
			{Platform: "aliexpress", Price: 1999, InStock: true},
			{Platform: "temu", Price: 1550, InStock: true},
		},
	}
	existing.RecomputeBest()
	require.NoError(t, store.UpsertProduct(context.Background(), existing))

	importer := NewImporter(store)
	content := []byte(`ProductId,Product Title,Image Url,Discount Price,Original Price,Promotion Link
100,Wireless Earbuds,https://img.example.com/other.jpg,US $11.99,,https://s.click.example.com/1
`)

	result, err := importer.Import(context.Background(), "aliexpress", "export.csv", content)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 1, result.Updated)

	p, err := store.FindBySourceID(context.Background(), "aliexpress", "100")
	require.NoError(t, err)
	require.Len(t, p.Offers, 2)
	// Curated image survives the feed update.
	assert.Equal(t, "https://cdn.example.com/curated.jpg", p.Image)
	// New aliexpress price beats the temu offer now.
	assert.Equal(t, int64(1199), p.BestPrice)
	assert.Equal(t, "aliexpress", p.BestPlatform)
}

func TestImportCountsBadRows(t *testing.T) {
	store := newMemStore()
	importer := NewImporter(store)

	content := []byte(`ProductId,Product Title,Image Url,Discount Price,Original Price,Promotion Link
100,Good Row,,US $5.00,,
101,,,US $5.00,,
102,No Price,,,,
`)

	result, err := importer.Import(context.Background(), "aliexpress", "export.csv", content)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Failed)
	assert.NotEmpty(t, result.Errors)
}

func TestImportRejectsUnknownPlatform(t *testing.T) {
	importer := NewImporter(newMemStore())
	_, err := importer.Import(context.Background(), "wish", "export.csv", []byte("x"))
	assert.Error(t, err)
}

func TestImportZipArchive(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("feed.csv")
	require.NoError(t, err)
	_, err = f.Write([]byte("product_id,title,price\nz1,Zipped Lamp,4.99\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	store := newMemStore()
	importer := NewImporter(store)

	result, err := importer.Import(context.Background(), "temu", "feed.zip", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	p, err := store.FindBySourceID(context.Background(), "temu", "z1")
	require.NoError(t, err)
	assert.Equal(t, "Zipped Lamp", p.Name)
}

func TestExpandZipSkipsJunk(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range []string{"__MACOSX/._feed.csv", "data/feed.csv"} {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte("product_id,title,price\n1,A,1.00\n"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	files, err := ExpandZip(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "data/feed.csv", files[0].InnerFilename)
}
