package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/globaldeals/catalog-service/internal/database"
	"github.com/globaldeals/catalog-service/internal/feeds"
	"github.com/globaldeals/catalog-service/internal/platform"
	"github.com/globaldeals/catalog-service/internal/storage"
)

var (
	importPlatform string
	importArchive  bool
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a feed file into the catalog",
	Long: `Parse a feed file and merge its rows into the catalog: new products are
created, existing products (matched by the platform's external ID) get their
offer replaced, and the run is recorded in the import history.`,
	Example: `  catalog-service import ./data/aliexpress.csv --platform aliexpress
  catalog-service import ./data/temu-daily.zip --platform temu --archive=false`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importPlatform, "platform", "", "Platform slug (required)")
	importCmd.Flags().BoolVar(&importArchive, "archive", true, "Archive the raw feed file")
	importCmd.MarkFlagRequired("platform")
}

func runImport(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	importPlatform = platform.Normalize(importPlatform)
	if !platform.IsValid(importPlatform) {
		return fmt.Errorf("invalid platform: %s\nValid platforms: %s",
			importPlatform, strings.Join(platform.ValidPlatforms(), ", "))
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	ctx := context.Background()
	store := database.NewStore(database.Pool())
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	importer := feeds.NewImporter(store)
	if importArchive && cfg != nil && cfg.Storage.Type == "local" && cfg.Storage.BasePath != "" {
		archive, err := storage.NewLocalStorage(cfg.Storage.BasePath)
		if err != nil {
			return fmt.Errorf("failed to open archive storage: %w", err)
		}
		importer = importer.WithArchive(archive)
	}

	result, err := importer.Import(ctx, importPlatform, filepath.Base(filePath), content)
	if err != nil {
		return err
	}

	fmt.Printf("\nImport %s finished\n", result.RunID)
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Imported: %d\nUpdated:  %d\nFailed:   %d\n", result.Imported, result.Updated, result.Failed)
	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (first %d):\n", minInt(len(result.Errors), 10))
		for i, msg := range result.Errors {
			if i >= 10 {
				break
			}
			fmt.Printf("  %s\n", msg)
		}
	}
	return nil
}
