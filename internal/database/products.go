package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/globaldeals/catalog-service/internal/catalog"
	"github.com/globaldeals/catalog-service/internal/pkg/cuid2"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store wraps a connection pool with catalog persistence. Handlers depend
// on the interfaces in the handlers package; Store is the Postgres
// implementation.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const productColumns = `id, name, name_i18n, description, image, images,
	category, category_slug, offers, best_price, best_platform,
	discount_percent, source_ids, created_at, updated_at`

// EnsureSchema creates the tables and indexes if they do not exist.
// Idempotent; runs at startup before the server accepts traffic.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id               TEXT PRIMARY KEY,
			name             TEXT NOT NULL,
			name_i18n        JSONB,
			description      TEXT NOT NULL DEFAULT '',
			image            TEXT NOT NULL DEFAULT '',
			images           JSONB,
			category         TEXT NOT NULL DEFAULT '',
			category_slug    TEXT NOT NULL DEFAULT '',
			offers           JSONB NOT NULL DEFAULT '[]',
			best_price       BIGINT NOT NULL DEFAULT 0,
			best_platform    TEXT NOT NULL DEFAULT '',
			discount_percent INTEGER NOT NULL DEFAULT 0,
			source_ids       JSONB,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category_slug ON products (category_slug)`,
		`CREATE INDEX IF NOT EXISTS idx_products_best_price ON products (best_price)`,
		`CREATE INDEX IF NOT EXISTS idx_products_updated_at ON products (updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_products_offers ON products USING GIN (offers jsonb_path_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_products_source_ids ON products USING GIN (source_ids)`,
		`CREATE TABLE IF NOT EXISTS site_settings (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS feed_runs (
			id          TEXT PRIMARY KEY,
			platform    TEXT NOT NULL,
			filename    TEXT NOT NULL DEFAULT '',
			file_type   TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL,
			imported    INTEGER NOT NULL DEFAULT 0,
			updated     INTEGER NOT NULL DEFAULT 0,
			failed      INTEGER NOT NULL DEFAULT 0,
			errors      JSONB,
			started_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			finished_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feed_runs_started_at ON feed_runs (started_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("error ensuring schema: %w", err)
		}
	}
	return nil
}

// ProductFilter narrows and orders a product listing.
type ProductFilter struct {
	CategorySlug string
	Search       string
	Platform     string
	MinPrice     *int64 // cents
	MaxPrice     *int64 // cents
	Sort         string
	Limit        int
	Offset       int
}

// Whitelisted sort keys; anything else falls back to newest-first.
var sortClauses = map[string]string{
	"price_asc":  "best_price ASC, id ASC",
	"price_desc": "best_price DESC, id ASC",
	"discount":   "discount_percent DESC, id ASC",
	"newest":     "created_at DESC, id ASC",
	"name":       "name ASC, id ASC",
}

func (f ProductFilter) where() (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.CategorySlug != "" {
		add("category_slug = $%d", f.CategorySlug)
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if f.Platform != "" {
		add(`offers @> jsonb_build_array(jsonb_build_object('platform', $%d::text))`, f.Platform)
	}
	if f.MinPrice != nil {
		add("best_price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("best_price <= $%d", *f.MaxPrice)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// ListProducts returns a filtered page of products and the total count
// matching the filter (for pagination).
func (s *Store) ListProducts(ctx context.Context, filter ProductFilter) ([]catalog.Product, int, error) {
	where, args := filter.where()

	var total int
	countQuery := "SELECT COUNT(*) FROM products " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting products: %w", err)
	}

	orderBy, ok := sortClauses[filter.Sort]
	if !ok {
		orderBy = sortClauses["newest"]
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		"SELECT %s FROM products %s ORDER BY %s LIMIT $%d OFFSET $%d",
		productColumns, where, orderBy, len(args)-1, len(args),
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying products: %w", err)
	}
	defer rows.Close()

	products := make([]catalog.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error reading products: %w", err)
	}

	return products, total, nil
}

// GetProduct returns one product by ID.
func (s *Store) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products WHERE id = $1", productColumns)
	p, err := scanProduct(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying product %s: %w", id, err)
	}
	return &p, nil
}

// FindBySourceID looks up the product a feed row maps to, keyed by the
// external ID the platform assigned it.
func (s *Store) FindBySourceID(ctx context.Context, platform, externalID string) (*catalog.Product, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM products WHERE source_ids @> jsonb_build_object($1::text, $2::text) LIMIT 1",
		productColumns,
	)
	p, err := scanProduct(s.pool.QueryRow(ctx, query, platform, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying product by source id: %w", err)
	}
	return &p, nil
}

// UpsertProduct inserts the product, or updates it when the ID already
// exists. Assigns an ID and timestamps when missing.
func (s *Store) UpsertProduct(ctx context.Context, p *catalog.Product) error {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = cuid2.NewID("prd")
		p.CreatedAt = now
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.CategorySlug == "" {
		p.CategorySlug = catalog.Slugify(p.Category)
	}
	p.RecomputeBest()

	query := `
		INSERT INTO products (
			id, name, name_i18n, description, image, images,
			category, category_slug, offers, best_price, best_platform,
			discount_percent, source_ids, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			name_i18n = EXCLUDED.name_i18n,
			description = EXCLUDED.description,
			image = EXCLUDED.image,
			images = EXCLUDED.images,
			category = EXCLUDED.category,
			category_slug = EXCLUDED.category_slug,
			offers = EXCLUDED.offers,
			best_price = EXCLUDED.best_price,
			best_platform = EXCLUDED.best_platform,
			discount_percent = EXCLUDED.discount_percent,
			source_ids = EXCLUDED.source_ids,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Name, p.NameI18n, p.Description, p.Image, p.Images,
		p.Category, p.CategorySlug, p.Offers, p.BestPrice, p.BestPlatform,
		p.DiscountPercent, p.SourceIDs, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error upserting product %s: %w", p.ID, err)
	}
	return nil
}

// DeleteProduct removes a product by ID.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("error deleting product %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Categories returns distinct categories with product counts, most
// populous first.
func (s *Store) Categories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT category, category_slug, COUNT(*)
		FROM products
		WHERE category <> ''
		GROUP BY category, category_slug
		ORDER BY COUNT(*) DESC, category ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("error querying categories: %w", err)
	}
	defer rows.Close()

	categories := make([]catalog.Category, 0)
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.Name, &c.Slug, &c.Count); err != nil {
			return nil, fmt.Errorf("error scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Suggest returns product names matching the query for typeahead, plus
// the dominant category among the matches (empty when no clear match).
func (s *Store) Suggest(ctx context.Context, query string, limit int) ([]string, string, error) {
	if limit <= 0 || limit > 20 {
		limit = 8
	}

	rows, err := s.pool.Query(ctx, `
		SELECT name, category
		FROM products
		WHERE name ILIKE $1
		ORDER BY (name ILIKE $2) DESC, best_price ASC
		LIMIT $3
	`, "%"+query+"%", query+"%", limit)
	if err != nil {
		return nil, "", fmt.Errorf("error querying suggestions: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0, limit)
	categoryVotes := make(map[string]int)
	for rows.Next() {
		var name, category string
		if err := rows.Scan(&name, &category); err != nil {
			return nil, "", fmt.Errorf("error scanning suggestion: %w", err)
		}
		names = append(names, name)
		if category != "" {
			categoryVotes[category]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error reading suggestions: %w", err)
	}

	detected := ""
	bestVotes := 0
	for category, votes := range categoryVotes {
		if votes > bestVotes || (votes == bestVotes && category < detected) {
			detected = category
			bestVotes = votes
		}
	}
	// A single stray match is not a signal.
	if bestVotes*2 < len(names) {
		detected = ""
	}

	return names, detected, nil
}

// CatalogStats summarizes the catalog for the admin dashboard.
type CatalogStats struct {
	TotalProducts    int            `json:"total_products"`
	TotalCategories  int            `json:"total_categories"`
	OffersByPlatform map[string]int `json:"offers_by_platform"`
	LastImportAt     *time.Time     `json:"last_import_at,omitempty"`
}

// Stats aggregates catalog counts for the admin dashboard.
func (s *Store) Stats(ctx context.Context) (*CatalogStats, error) {
	stats := &CatalogStats{OffersByPlatform: make(map[string]int)}

	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT category_slug) FILTER (WHERE category_slug <> '')
		FROM products
	`).Scan(&stats.TotalProducts, &stats.TotalCategories)
	if err != nil {
		return nil, fmt.Errorf("error querying product counts: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT offer->>'platform', COUNT(*)
		FROM products, jsonb_array_elements(offers) AS offer
		GROUP BY offer->>'platform'
	`)
	if err != nil {
		return nil, fmt.Errorf("error querying platform counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var platform string
		var count int
		if err := rows.Scan(&platform, &count); err != nil {
			return nil, fmt.Errorf("error scanning platform count: %w", err)
		}
		stats.OffersByPlatform[platform] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var lastImport *time.Time
	err = s.pool.QueryRow(ctx, `
		SELECT MAX(finished_at) FROM feed_runs WHERE status = 'completed'
	`).Scan(&lastImport)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("error querying last import: %w", err)
	}
	stats.LastImportAt = lastImport

	return stats, nil
}

// rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.NameI18n, &p.Description, &p.Image, &p.Images,
		&p.Category, &p.CategorySlug, &p.Offers, &p.BestPrice, &p.BestPlatform,
		&p.DiscountPercent, &p.SourceIDs, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}
