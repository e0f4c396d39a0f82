package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/globaldeals/catalog-service/internal/database"
)

func multipartFeed(t *testing.T, platform, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("platform", platform))
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestImportFeedUpload(t *testing.T) {
	env := newTestEnv()
	body, contentType := multipartFeed(t, "aliexpress", "feed.csv", "ProductId,Product Title,Discount Price\n1,Lamp,9.99\n")

	req := httptest.NewRequest(http.MethodPost, "/admin/feeds/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "aliexpress", env.importer.lastPlatform)
	assert.Equal(t, "feed.csv", env.importer.lastFilename)
	assert.Contains(t, string(env.importer.lastContent), "Lamp")
}

func TestImportFeedFromURL(t *testing.T) {
	env := newTestEnv()
	env.fetcher.content = []byte("product_id,title,price\n7,Desk,49.00\n")

	form := url.Values{}
	form.Set("platform", "temu")
	form.Set("url", "https://feeds.example/temu/daily.csv")

	req := httptest.NewRequest(http.MethodPost, "/admin/feeds/import", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://feeds.example/temu/daily.csv", env.fetcher.lastURL)
	assert.Equal(t, "daily.csv", env.importer.lastFilename)
	assert.Equal(t, "temu", env.importer.lastPlatform)
}

func TestImportFeedUnknownPlatform(t *testing.T) {
	env := newTestEnv()
	body, contentType := multipartFeed(t, "wish", "feed.csv", "x")

	req := httptest.NewRequest(http.MethodPost, "/admin/feeds/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportFeedNoPayload(t *testing.T) {
	env := newTestEnv()

	form := url.Values{}
	form.Set("platform", "temu")

	req := httptest.NewRequest(http.MethodPost, "/admin/feeds/import", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportFeedParseFailure(t *testing.T) {
	env := newTestEnv()
	env.importer.err = errStore
	body, contentType := multipartFeed(t, "shein", "feed.csv", "garbage")

	req := httptest.NewRequest(http.MethodPost, "/admin/feeds/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDeleteProduct(t *testing.T) {
	env := newTestEnv()
	env.addProduct(sampleProduct())

	req := httptest.NewRequest(http.MethodDelete, "/admin/products/prd_wireless", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "prd_wireless")
	assert.NotContains(t, env.store.products, "prd_wireless")

	// A second delete finds nothing.
	req = httptest.NewRequest(http.MethodDelete, "/admin/products/prd_wireless", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListFeedRuns(t *testing.T) {
	env := newTestEnv()
	finished := time.Now()
	env.store.feedRuns = []database.FeedRun{
		{ID: "run_b", Platform: "temu", Status: database.FeedRunCompleted, Imported: 10, FinishedAt: &finished},
		{ID: "run_a", Platform: "aliexpress", Status: database.FeedRunFailed},
	}

	w := doGET(t, env, "/admin/feeds/runs")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Runs []database.FeedRun `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Runs, 2)
	assert.Equal(t, "run_b", resp.Runs[0].ID)

	w = doGET(t, env, "/admin/feeds/runs/run_a")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doGET(t, env, "/admin/feeds/runs/run_zzz")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStats(t *testing.T) {
	env := newTestEnv()
	env.store.stats = &database.CatalogStats{
		TotalProducts:    42,
		TotalCategories:  5,
		OffersByPlatform: map[string]int{"temu": 30, "aliexpress": 25},
	}

	w := doGET(t, env, "/admin/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var stats database.CatalogStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 42, stats.TotalProducts)
	assert.Equal(t, 30, stats.OffersByPlatform["temu"])
}

func putJSON(t *testing.T, env *testEnv, path string, payload string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestPutAdminSettings(t *testing.T) {
	env := newTestEnv()

	w := putJSON(t, env, "/admin/settings", `{"tags": {"AliExpress": " gd-7 "}, "tracking_param": "aff"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gd-7", env.store.affiliate.Tags["aliexpress"])

	w = putJSON(t, env, "/admin/settings", `{"tags": {"wish": "x"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPutSiteSettings(t *testing.T) {
	env := newTestEnv()

	w := putJSON(t, env, "/admin/site-settings", `{"site_name": "Deal Hunter", "primary_color": "#111111"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Deal Hunter", env.store.site.SiteName)

	w = putJSON(t, env, "/admin/site-settings", `{"site_name": "  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSiteSettingsDefaults(t *testing.T) {
	env := newTestEnv()
	w := doGET(t, env, "/site-settings")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Global Deals")
}
