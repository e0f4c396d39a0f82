package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/globaldeals/catalog-service/internal/catalog"
)

const (
	settingsKeySite      = "site"
	settingsKeyAffiliate = "affiliate"
)

// SiteSettings returns the stored site settings, or the defaults when
// nothing has been saved yet.
func (s *Store) SiteSettings(ctx context.Context) (catalog.SiteSettings, error) {
	settings := catalog.DefaultSiteSettings()
	err := s.pool.QueryRow(ctx,
		"SELECT value FROM site_settings WHERE key = $1", settingsKeySite,
	).Scan(&settings)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.DefaultSiteSettings(), nil
		}
		return catalog.SiteSettings{}, fmt.Errorf("error querying site settings: %w", err)
	}
	return settings, nil
}

// SaveSiteSettings persists the site settings.
func (s *Store) SaveSiteSettings(ctx context.Context, settings catalog.SiteSettings) error {
	return s.saveSetting(ctx, settingsKeySite, settings)
}

// AffiliateSettings returns the stored affiliate configuration. Missing
// settings mean redirects pass URLs through untouched.
func (s *Store) AffiliateSettings(ctx context.Context) (catalog.AffiliateSettings, error) {
	var settings catalog.AffiliateSettings
	err := s.pool.QueryRow(ctx,
		"SELECT value FROM site_settings WHERE key = $1", settingsKeyAffiliate,
	).Scan(&settings)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.AffiliateSettings{}, nil
		}
		return catalog.AffiliateSettings{}, fmt.Errorf("error querying affiliate settings: %w", err)
	}
	return settings, nil
}

// SaveAffiliateSettings persists the affiliate configuration.
func (s *Store) SaveAffiliateSettings(ctx context.Context, settings catalog.AffiliateSettings) error {
	return s.saveSetting(ctx, settingsKeyAffiliate, settings)
}

func (s *Store) saveSetting(ctx context.Context, key string, value any) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO site_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`, key, value)
	if err != nil {
		return fmt.Errorf("error saving setting %s: %w", key, err)
	}
	return nil
}
