package csv

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/globaldeals/catalog-service/internal/parsers/charset"
	"github.com/globaldeals/catalog-service/internal/types"
)

// Parser implements CSV parsing with encoding detection and column mapping
type Parser struct {
	options CsvParserOptions

	// Alternative mapping for fallback
	alternativeMapping *CsvColumnMapping
}

// NewParser creates a new CSV parser with the given options
func NewParser(options CsvParserOptions) *Parser {
	if options.QuoteChar == 0 {
		options.QuoteChar = '"'
	}
	return &Parser{
		options: options,
	}
}

// SetAlternativeMapping sets an alternative column mapping to try if the primary fails
func (p *Parser) SetAlternativeMapping(mapping *CsvColumnMapping) {
	p.alternativeMapping = mapping
}

// Parse parses CSV content into normalized feed rows
func (p *Parser) Parse(content []byte) (*types.ParseResult, error) {
	opts := p.resolveOptions()

	// Detect encoding if not set
	if opts.Encoding == "" {
		detected := charset.DetectEncoding(content)
		opts.Encoding = CsvEncoding(detected)
	}

	// Decode content to UTF-8
	decoded, err := charset.Decode(content, charset.Encoding(opts.Encoding))
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	// Detect delimiter if not set
	if opts.Delimiter == "" {
		opts.Delimiter = DetectDelimiter(decoded)
	}

	rawRows := p.parseCSV(decoded, opts)
	if len(rawRows) == 0 {
		return &types.ParseResult{
			TotalRows: 0,
			ValidRows: 0,
		}, nil
	}

	// Extract headers if present
	headers := make([]string, 0)
	dataStartRow := 0
	if opts.HasHeader {
		headers = rawRows[0]
		dataStartRow = 1
	}

	// Build column indices
	columnIndices, err := p.buildColumnIndices(headers, opts.ColumnMapping)
	if err != nil {
		if p.alternativeMapping != nil {
			return p.retryWithAlternative(content)
		}
		return &types.ParseResult{
			Errors: []types.ParseError{
				{
					Field:   nil,
					Message: err.Error(),
				},
			},
			TotalRows: len(rawRows) - dataStartRow,
		}, nil
	}

	result := &types.ParseResult{
		TotalRows: 0,
		ValidRows: 0,
		Rows:      make([]types.FeedRow, 0),
		Errors:    make([]types.ParseError, 0),
		Warnings:  make([]types.ParseWarning, 0),
	}

	for i := dataStartRow; i < len(rawRows); i++ {
		rawRow := rawRows[i]
		rowNumber := i + 1

		// Skip empty rows
		if opts.SkipEmptyRows && isEmptyRow(rawRow) {
			continue
		}

		result.TotalRows++

		row, errs := p.mapRowToFeedRow(rawRow, rowNumber, columnIndices)
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}

		result.Rows = append(result.Rows, *row)
		result.ValidRows++
	}

	// If no valid rows and we have an alternative mapping, try it
	if result.ValidRows == 0 && p.alternativeMapping != nil {
		return p.retryWithAlternative(content)
	}

	return result, nil
}

func (p *Parser) retryWithAlternative(content []byte) (*types.ParseResult, error) {
	altOpts := p.options
	altOpts.ColumnMapping = p.alternativeMapping
	return NewParser(altOpts).Parse(content)
}

// parseCSV parses CSV content into raw rows
func (p *Parser) parseCSV(content string, opts CsvParserOptions) [][]string {
	lines := splitLines(content)
	rows := make([][]string, 0, len(lines))

	delimRune := rune(opts.Delimiter[0])

	for _, line := range lines {
		if line == "" {
			rows = append(rows, []string{})
			continue
		}

		fields := SplitCSVLine(line, delimRune, opts.QuoteChar)

		// Trim whitespace from each field
		trimmed := make([]string, len(fields))
		for i, f := range fields {
			trimmed[i] = strings.TrimSpace(f)
		}

		rows = append(rows, trimmed)
	}

	return rows
}

// buildColumnIndices builds a map of field names to column indices
func (p *Parser) buildColumnIndices(headers []string, mapping *CsvColumnMapping) (map[string]int, error) {
	if mapping == nil {
		return nil, fmt.Errorf("no column mapping provided")
	}

	indices := make(map[string]int)

	// Fuzzy header matching: compare with spaces, underscores, and
	// dashes stripped so "Product Title" matches "product_title".
	normalizeHeader := func(h string) string {
		return strings.ToLower(
			strings.Map(func(r rune) rune {
				switch r {
				case ' ', '_', '-':
					return -1
				default:
					return r
				}
			}, strings.TrimSpace(h)))
	}

	resolveIndex := func(field string, value *string, required bool) error {
		if value == nil || *value == "" {
			if required {
				return fmt.Errorf("required field %s not in mapping", field)
			}
			return nil
		}

		// Check if it's a numeric index (column position)
		idx, err := parseColumnIndex(*value)
		if err == nil {
			if idx < 0 {
				return fmt.Errorf("invalid column index for %s: %s", field, *value)
			}
			indices[field] = idx
			return nil
		}

		// Try exact case-insensitive match first
		idx = -1
		for i, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(*value)) {
				idx = i
				break
			}
		}

		// Fallback: fuzzy match (separator-insensitive)
		if idx == -1 {
			normalizedMapping := normalizeHeader(*value)
			for i, h := range headers {
				if normalizeHeader(h) == normalizedMapping {
					log.Warn().Str("mapping", *value).Str("header", h).Msg("Fuzzy header match")
					idx = i
					break
				}
			}
		}

		if idx == -1 {
			if required {
				return fmt.Errorf("column '%s' for field '%s' not found in headers", *value, field)
			}
			// Optional field not found - that's ok
			return nil
		}

		indices[field] = idx
		return nil
	}

	if err := resolveIndex("externalId", &mapping.ExternalID, true); err != nil {
		return nil, err
	}
	if err := resolveIndex("name", &mapping.Name, true); err != nil {
		return nil, err
	}
	if err := resolveIndex("price", &mapping.Price, true); err != nil {
		return nil, err
	}

	// Optional fields
	resolveIndex("description", mapping.Description, false)
	resolveIndex("category", mapping.Category, false)
	resolveIndex("imageUrl", mapping.ImageURL, false)
	resolveIndex("originalPrice", mapping.OriginalPrice, false)
	resolveIndex("affiliateUrl", mapping.AffiliateURL, false)
	resolveIndex("inStock", mapping.InStock, false)

	return indices, nil
}

// mapRowToFeedRow maps a raw CSV row to a FeedRow
func (p *Parser) mapRowToFeedRow(rawRow []string, rowNumber int, indices map[string]int) (*types.FeedRow, []types.ParseError) {
	var errors []types.ParseError

	getValue := func(field string) *string {
		idx, ok := indices[field]
		if !ok || idx >= len(rawRow) {
			return nil
		}
		val := strings.TrimSpace(rawRow[idx])
		if val == "" {
			return nil
		}
		return &val
	}

	// External ID and name are required
	externalID := ""
	if idVal := getValue("externalId"); idVal != nil {
		externalID = *idVal
	}
	if externalID == "" {
		errors = append(errors, types.ParseError{
			RowNumber: &rowNumber,
			Field:     types.StringPtr("externalId"),
			Message:   "External ID is required",
		})
	}

	name := ""
	if nameVal := getValue("name"); nameVal != nil {
		name = *nameVal
	}
	if name == "" {
		errors = append(errors, types.ParseError{
			RowNumber: &rowNumber,
			Field:     types.StringPtr("name"),
			Message:   "Name is required",
		})
	}

	// Rows without a usable price are rejected, not priced at zero.
	var price int64
	if priceStr := getValue("price"); priceStr != nil {
		parsed, err := ParsePrice(*priceStr)
		if err != nil {
			errors = append(errors, types.ParseError{
				RowNumber:     &rowNumber,
				Field:         types.StringPtr("price"),
				Message:       "Invalid price value",
				OriginalValue: priceStr,
			})
		} else {
			price = parsed
		}
	} else {
		errors = append(errors, types.ParseError{
			RowNumber: &rowNumber,
			Field:     types.StringPtr("price"),
			Message:   "Price is required",
		})
	}

	var originalPrice *int64
	if originalStr := getValue("originalPrice"); originalStr != nil {
		parsed, err := ParsePrice(*originalStr)
		// A strike-through below the sale price is feed noise.
		if err == nil && parsed > price {
			originalPrice = &parsed
		}
	}

	inStock := true
	if stockStr := getValue("inStock"); stockStr != nil {
		switch strings.ToLower(*stockStr) {
		case "false", "0", "no", "out_of_stock", "outofstock":
			inStock = false
		}
	}

	if len(errors) > 0 {
		return nil, errors
	}

	// Build raw data JSON
	rawDataJSON, _ := json.Marshal(rawRow)

	row := &types.FeedRow{
		ExternalID:    externalID,
		Name:          name,
		Description:   getValue("description"),
		Category:      getValue("category"),
		ImageURL:      getValue("imageUrl"),
		Price:         price,
		OriginalPrice: originalPrice,
		AffiliateURL:  getValue("affiliateUrl"),
		InStock:       inStock,
		RowNumber:     rowNumber,
		RawData:       string(rawDataJSON),
	}

	return row, nil
}

// resolveOptions returns options with defaults filled in
func (p *Parser) resolveOptions() CsvParserOptions {
	opts := p.options
	if opts.QuoteChar == 0 {
		opts.QuoteChar = '"'
	}
	return opts
}

// splitLines splits content into lines handling different line endings
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}

// isEmptyRow checks if a row is empty
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseColumnIndex attempts to parse a column index from a string
func parseColumnIndex(s string) (int, error) {
	s = strings.TrimSpace(s)
	var result int
	n, err := fmt.Sscanf(s, "%d", &result)
	if err != nil || n != 1 {
		return -1, fmt.Errorf("not a numeric index")
	}
	return result, nil
}
