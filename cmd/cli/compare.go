package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/globaldeals/catalog-service/internal/apiclient"
	"github.com/globaldeals/catalog-service/internal/compare"
	"github.com/globaldeals/catalog-service/internal/parsers/csv"
	"github.com/globaldeals/catalog-service/internal/platform"
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <platform=url> [<platform=url> ...]",
	Short: "Fetch live offers and print the ranked comparison",
	Long: `Fetch offer endpoints for several platforms concurrently, merge the
offers into one comparison set, and print the ranking the storefront
would render. Useful for checking an upstream endpoint before wiring it
into the refresh schedule.`,
	Example: `  catalog-service compare \
    aliexpress=https://api.example/ali/offers/100 \
    temu=https://api.example/temu/offers/8831`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	urls := make(map[string]string, len(args))
	for _, arg := range args {
		slug, url, found := strings.Cut(arg, "=")
		slug = platform.Normalize(slug)
		if !found || url == "" {
			return fmt.Errorf("expected platform=url, got %q", arg)
		}
		if !platform.IsValid(slug) {
			return fmt.Errorf("invalid platform: %s\nValid platforms: %s",
				slug, strings.Join(platform.ValidPlatforms(), ", "))
		}
		urls[slug] = url
	}

	client := newUpstreamClient()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sets, err := client.FetchAllOffers(ctx, urls)
	if err != nil {
		return err
	}

	// Each set is already normalized; merge keeping one offer per
	// platform, first occurrence wins.
	merged := make([]compare.Offer, 0, len(sets))
	seen := make(map[string]bool, len(sets))
	for _, set := range sets {
		for _, offer := range set.Offers {
			if seen[offer.Platform] {
				continue
			}
			seen[offer.Platform] = true
			merged = append(merged, offer)
		}
	}

	view := compare.BuildView(compare.Rank(merged))
	if view.OfferCount == 0 {
		fmt.Println("No offers returned.")
		return nil
	}

	fmt.Printf("%-12s %10s %6s %8s  %s\n", "PLATFORM", "PRICE", "RANK", "DELTA", "BADGES")
	fmt.Println(strings.Repeat("-", 56))
	for _, offer := range view.Offers {
		badges := make([]string, 0, len(offer.Badges))
		for _, b := range offer.Badges {
			badges = append(badges, string(b))
		}
		fmt.Printf("%-12s %10s %6d %8s  %s\n",
			offer.Platform,
			csv.FormatCents(offer.Price),
			offer.Rank,
			csv.FormatCents(offer.PriceDelta),
			strings.Join(badges, ","))
	}
	fmt.Printf("\nOffers: %d  Max savings: %s  In stock: %v\n",
		view.OfferCount, csv.FormatCents(view.MaxSavings), view.HasAnyInStock)
	return nil
}

// newUpstreamClient builds the offers client from config, falling back
// to defaults when no config file was loaded.
func newUpstreamClient() *apiclient.Client {
	if cfg == nil {
		return apiclient.NewClient(apiclient.DefaultConfig(), "")
	}
	return apiclient.NewClient(apiclient.Config{
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		MaxRetries:        cfg.Upstream.MaxRetries,
		InitialBackoff:    time.Duration(cfg.Upstream.InitialBackoffMs) * time.Millisecond,
		MaxBackoff:        time.Duration(cfg.Upstream.MaxBackoffMs) * time.Millisecond,
	}, cfg.Upstream.APIKey)
}
