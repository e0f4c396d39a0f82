// Package feeds turns platform feed files (CSV, XML, XLSX, optionally
// zipped) into catalog products.
package feeds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/globaldeals/catalog-service/internal/catalog"
	"github.com/globaldeals/catalog-service/internal/compare"
	"github.com/globaldeals/catalog-service/internal/database"
	"github.com/globaldeals/catalog-service/internal/parsers/csv"
	"github.com/globaldeals/catalog-service/internal/parsers/xlsx"
	"github.com/globaldeals/catalog-service/internal/parsers/xml"
	"github.com/globaldeals/catalog-service/internal/platform"
	"github.com/globaldeals/catalog-service/internal/storage"
	"github.com/globaldeals/catalog-service/internal/telemetry"
	"github.com/globaldeals/catalog-service/internal/types"
)

// Store is the persistence surface the importer needs.
type Store interface {
	FindBySourceID(ctx context.Context, platform, externalID string) (*catalog.Product, error)
	UpsertProduct(ctx context.Context, p *catalog.Product) error
	StartFeedRun(ctx context.Context, platform, filename, fileType string) (string, error)
	FinishFeedRun(ctx context.Context, id, status string, imported, updated, failed int, errs []string) error
}

// ImportResult summarizes one feed import.
type ImportResult struct {
	RunID    string   `json:"run_id"`
	Platform string   `json:"platform"`
	Imported int      `json:"imported"` // new products created
	Updated  int      `json:"updated"`  // existing products refreshed
	Failed   int      `json:"failed"`   // rows rejected
	Errors   []string `json:"errors,omitempty"`
}

// Importer parses feed files and merges their rows into the catalog.
type Importer struct {
	store   Store
	archive storage.Storage
	logger  zerolog.Logger
}

// NewImporter creates an Importer writing through the given store.
func NewImporter(store Store) *Importer {
	return &Importer{
		store:  store,
		logger: log.With().Str("component", "feed-importer").Logger(),
	}
}

// WithArchive makes the importer keep a copy of every raw feed file.
func (im *Importer) WithArchive(archive storage.Storage) *Importer {
	im.archive = archive
	return im
}

// Import parses the file and applies every valid row. The run is
// recorded even when parsing fails outright.
func (im *Importer) Import(ctx context.Context, platformSlug, filename string, content []byte) (*ImportResult, error) {
	platformSlug = platform.Normalize(platformSlug)
	if !platform.IsValid(platformSlug) {
		return nil, fmt.Errorf("unknown platform: %s", platformSlug)
	}
	started := time.Now()

	fileType := types.DetectFileType(filename)

	runID, err := im.store.StartFeedRun(ctx, platformSlug, filename, string(fileType))
	if err != nil {
		return nil, err
	}

	result := &ImportResult{RunID: runID, Platform: platformSlug}

	if im.archive != nil {
		key := storage.FeedKey(platformSlug, started.UTC(), runID, filename)
		meta := &storage.Metadata{OriginalName: filename, Platform: platformSlug, RunID: runID}
		if err := im.archive.Put(ctx, key, content, meta); err != nil {
			// Archiving is best effort; the import itself proceeds.
			im.logger.Warn().Err(err).Str("key", key).Msg("Failed to archive feed file")
		}
	}

	parsed, err := im.parse(content, filename, fileType, platformSlug)
	if err != nil {
		im.logger.Error().Err(err).Str("platform", platformSlug).Str("filename", filename).Msg("Feed parse failed")
		finishErr := im.store.FinishFeedRun(ctx, runID, database.FeedRunFailed, 0, 0, 0, []string{err.Error()})
		if finishErr != nil {
			im.logger.Error().Err(finishErr).Str("run_id", runID).Msg("Failed to record feed run")
		}
		return nil, err
	}

	for _, parseErr := range parsed.Errors {
		result.Failed++
		result.Errors = append(result.Errors, formatParseError(parseErr))
	}

	for i := range parsed.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		created, err := im.applyRow(ctx, platformSlug, &parsed.Rows[i])
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", parsed.Rows[i].RowNumber, err))
			continue
		}
		if created {
			result.Imported++
		} else {
			result.Updated++
		}
	}

	if err := im.store.FinishFeedRun(ctx, runID, database.FeedRunCompleted,
		result.Imported, result.Updated, result.Failed, result.Errors); err != nil {
		im.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to record feed run")
	}
	telemetry.RecordFeedImport(platformSlug, result.Imported, result.Updated, result.Failed, time.Since(started))

	im.logger.Info().
		Str("platform", platformSlug).
		Str("filename", filename).
		Int("imported", result.Imported).
		Int("updated", result.Updated).
		Int("failed", result.Failed).
		Msg("Feed import finished")

	return result, nil
}

// parse dispatches on file type. ZIP archives are expanded and their
// inner files parsed and merged.
func (im *Importer) parse(content []byte, filename string, fileType types.FileType, platformSlug string) (*types.ParseResult, error) {
	switch fileType {
	case types.FileTypeZIP:
		return im.parseZip(content, platformSlug)
	case types.FileTypeXML:
		parser := xml.NewParser(xml.XmlParserOptions{
			FieldMapping: xml.GenericFieldMapping(),
		})
		return parser.Parse(content)
	case types.FileTypeXLSX:
		parser := xlsx.NewParser(xlsx.XlsxParserOptions{
			HasHeader:     true,
			SkipEmptyRows: true,
			ColumnMapping: xlsxMappingFor(platformSlug),
		})
		parser.SetAlternativeMapping(xlsx.GenericMapping())
		return parser.Parse(content)
	default:
		parser := csv.NewParser(csv.CsvParserOptions{
			HasHeader:     true,
			SkipEmptyRows: true,
			ColumnMapping: csvMappingFor(platformSlug),
		})
		parser.SetAlternativeMapping(csv.GenericMapping())
		return parser.Parse(content)
	}
}

func (im *Importer) parseZip(content []byte, platformSlug string) (*types.ParseResult, error) {
	files, err := ExpandZip(content)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("archive contains no parseable files")
	}

	merged := &types.ParseResult{
		Rows:   make([]types.FeedRow, 0),
		Errors: make([]types.ParseError, 0),
	}
	for _, f := range files {
		inner, err := im.parse(f.Content, f.InnerFilename, f.Type, platformSlug)
		if err != nil {
			merged.Errors = append(merged.Errors, types.ParseError{
				Message: fmt.Sprintf("%s: %v", f.InnerFilename, err),
			})
			continue
		}
		merged.Rows = append(merged.Rows, inner.Rows...)
		merged.Errors = append(merged.Errors, inner.Errors...)
		merged.TotalRows += inner.TotalRows
		merged.ValidRows += inner.ValidRows
	}
	return merged, nil
}

// applyRow merges one feed row into the catalog. Returns true when a
// new product was created.
func (im *Importer) applyRow(ctx context.Context, platformSlug string, row *types.FeedRow) (bool, error) {
	offer := compare.Offer{
		Platform:      platformSlug,
		Price:         row.Price,
		OriginalPrice: row.OriginalPrice,
		InStock:       row.InStock,
	}
	if row.AffiliateURL != nil {
		offer.OfferURL = *row.AffiliateURL
	}

	existing, err := im.store.FindBySourceID(ctx, platformSlug, row.ExternalID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return false, err
	}

	if existing != nil {
		existing.SetOffer(offer)
		// Fill metadata gaps but keep curated values.
		if existing.Image == "" && row.ImageURL != nil {
			existing.Image = *row.ImageURL
		}
		if existing.Description == "" && row.Description != nil {
			existing.Description = *row.Description
		}
		if existing.Category == "" && row.Category != nil {
			existing.Category = *row.Category
			existing.CategorySlug = catalog.Slugify(*row.Category)
		}
		return false, im.store.UpsertProduct(ctx, existing)
	}

	product := &catalog.Product{
		Name:      row.Name,
		Offers:    []compare.Offer{offer},
		SourceIDs: map[string]string{platformSlug: row.ExternalID},
	}
	if row.Description != nil {
		product.Description = *row.Description
	}
	if row.ImageURL != nil {
		product.Image = *row.ImageURL
	}
	if row.Category != nil {
		product.Category = *row.Category
	} else {
		product.Category = "General"
	}
	product.CategorySlug = catalog.Slugify(product.Category)

	return true, im.store.UpsertProduct(ctx, product)
}

func csvMappingFor(platformSlug string) *csv.CsvColumnMapping {
	switch platformSlug {
	case platform.AliExpress:
		return csv.AliExpressMapping()
	default:
		return csv.GenericMapping()
	}
}

func xlsxMappingFor(platformSlug string) *xlsx.XlsxColumnMapping {
	if platformSlug == platform.AliExpress {
		img := xlsx.NewHeaderIndex("Image Url")
		orig := xlsx.NewHeaderIndex("Original Price")
		link := xlsx.NewHeaderIndex("Promotion Link")
		cat := xlsx.NewHeaderIndex("Category")
		return &xlsx.XlsxColumnMapping{
			ExternalID:    xlsx.NewHeaderIndex("ProductId"),
			Name:          xlsx.NewHeaderIndex("Product Title"),
			Price:         xlsx.NewHeaderIndex("Discount Price"),
			ImageURL:      &img,
			OriginalPrice: &orig,
			AffiliateURL:  &link,
			Category:      &cat,
		}
	}
	return xlsx.GenericMapping()
}

func formatParseError(e types.ParseError) string {
	if e.RowNumber != nil && e.Field != nil {
		return fmt.Sprintf("row %d, %s: %s", *e.RowNumber, *e.Field, e.Message)
	}
	if e.RowNumber != nil {
		return fmt.Sprintf("row %d: %s", *e.RowNumber, e.Message)
	}
	return e.Message
}
