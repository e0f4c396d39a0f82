package xlsx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/globaldeals/catalog-service/internal/parsers/csv"
	"github.com/globaldeals/catalog-service/internal/types"
)

// Parser is an XLSX parser implementation
type Parser struct {
	options    XlsxParserOptions
	altMapping *XlsxColumnMapping
}

// NewParser creates a new XLSX parser
func NewParser(options XlsxParserOptions) *Parser {
	opts := DefaultOptions()

	if options.ColumnMapping != nil {
		opts.ColumnMapping = options.ColumnMapping
	}
	opts.HasHeader = options.HasHeader
	opts.HeaderRowCount = options.HeaderRowCount
	if !options.SkipEmptyRows && options.ColumnMapping != nil {
		opts.SkipEmptyRows = options.SkipEmptyRows
	}
	if options.SheetNameOrIndex != nil {
		opts.SheetNameOrIndex = options.SheetNameOrIndex
	}

	return &Parser{
		options: opts,
	}
}

// SetAlternativeMapping sets an alternative column mapping to try if primary fails
func (p *Parser) SetAlternativeMapping(mapping *XlsxColumnMapping) {
	p.altMapping = mapping
}

// Parse parses XLSX content into normalized feed rows
func (p *Parser) Parse(content []byte) (*types.ParseResult, error) {
	result, err := p.parseWithMapping(content, p.options.ColumnMapping)
	if err != nil {
		return nil, err
	}

	// If no valid rows and we have an alternative mapping, try it
	if result.ValidRows == 0 && p.altMapping != nil {
		altResult, altErr := p.parseWithMapping(content, p.altMapping)
		if altErr == nil && altResult.ValidRows > 0 {
			return altResult, nil
		}
	}

	return result, nil
}

// parseWithMapping parses content using the specified column mapping
func (p *Parser) parseWithMapping(content []byte, mapping *XlsxColumnMapping) (*types.ParseResult, error) {
	result := &types.ParseResult{
		Rows:     make([]types.FeedRow, 0),
		Errors:   make([]types.ParseError, 0),
		Warnings: make([]types.ParseWarning, 0),
	}

	// Open workbook from bytes
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		result.Errors = append(result.Errors, types.ParseError{
			Message: fmt.Sprintf("Failed to parse Excel file: %v", err),
		})
		return result, nil
	}
	defer f.Close()

	sheetName, err := p.selectSheet(f)
	if err != nil {
		result.Errors = append(result.Errors, types.ParseError{
			Message: err.Error(),
		})
		return result, nil
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		result.Errors = append(result.Errors, types.ParseError{
			Message: fmt.Sprintf("Failed to read worksheet: %v", err),
		})
		return result, nil
	}

	if len(rows) == 0 {
		result.Warnings = append(result.Warnings, types.ParseWarning{
			Message: "Excel file is empty",
		})
		return result, nil
	}

	// Extract headers if present
	var headers []string
	dataStartRow := p.options.HeaderRowCount

	if p.options.HasHeader {
		headers = make([]string, len(rows[0]))
		for i, cell := range rows[0] {
			headers[i] = strings.TrimSpace(cell)
		}
		if dataStartRow == 0 {
			dataStartRow = 1
		}
	}

	if len(rows) > dataStartRow {
		result.TotalRows = len(rows) - dataStartRow
	}

	if mapping == nil {
		result.Errors = append(result.Errors, types.ParseError{
			Message: "No column mapping provided. Cannot map Excel columns to feed fields.",
		})
		return result, nil
	}

	indices, err := p.buildColumnIndices(headers, mapping)
	if err != nil {
		result.Errors = append(result.Errors, types.ParseError{
			Message: err.Error(),
		})
		return result, nil
	}

	// Parse data rows
	for i := dataStartRow; i < len(rows); i++ {
		rawRow := rows[i]
		rowNumber := i + 1 // 1-based for user-facing

		if p.options.SkipEmptyRows && isEmptyRow(rawRow) {
			continue
		}

		row, rowErrors := p.mapRowToFeedRow(rawRow, rowNumber, indices)
		result.Errors = append(result.Errors, rowErrors...)
		if row != nil {
			result.Rows = append(result.Rows, *row)
		}
	}

	result.ValidRows = len(result.Rows)
	return result, nil
}

// selectSheet selects the appropriate sheet from the workbook
func (p *Parser) selectSheet(f *excelize.File) (string, error) {
	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	if p.options.SheetNameOrIndex == nil {
		return sheetList[0], nil
	}

	switch v := p.options.SheetNameOrIndex.(type) {
	case int:
		if v >= len(sheetList) {
			return "", fmt.Errorf("sheet index %d not found. Workbook has %d sheets", v, len(sheetList))
		}
		return sheetList[v], nil
	case string:
		for _, name := range sheetList {
			if name == v {
				return name, nil
			}
		}
		return "", fmt.Errorf("sheet %q not found. Available sheets: %s", v, strings.Join(sheetList, ", "))
	default:
		return sheetList[0], nil
	}
}

// buildColumnIndices builds resolved column indices from the mapping
func (p *Parser) buildColumnIndices(headers []string, mapping *XlsxColumnMapping) (*ResolvedColumnIndices, error) {
	indices := NewResolvedColumnIndices()

	resolveIndex := func(col *XlsxColumnIndex) int {
		if col == nil {
			return InvalidIndex
		}

		if col.IsNumeric() {
			return *col.Index
		}

		if col.IsHeader() {
			headerLower := strings.ToLower(strings.TrimSpace(*col.Header))
			for i, h := range headers {
				if strings.ToLower(strings.TrimSpace(h)) == headerLower {
					return i
				}
			}
		}

		return InvalidIndex
	}

	// Required fields
	indices.ExternalID = resolveIndex(&mapping.ExternalID)
	if indices.ExternalID == InvalidIndex {
		return nil, fmt.Errorf("column mapping missing required field: externalId")
	}

	indices.Name = resolveIndex(&mapping.Name)
	if indices.Name == InvalidIndex {
		return nil, fmt.Errorf("column mapping missing required field: name")
	}

	indices.Price = resolveIndex(&mapping.Price)
	if indices.Price == InvalidIndex {
		return nil, fmt.Errorf("column mapping missing required field: price")
	}

	// Optional fields
	indices.Description = resolveIndex(mapping.Description)
	indices.Category = resolveIndex(mapping.Category)
	indices.ImageURL = resolveIndex(mapping.ImageURL)
	indices.OriginalPrice = resolveIndex(mapping.OriginalPrice)
	indices.AffiliateURL = resolveIndex(mapping.AffiliateURL)
	indices.InStock = resolveIndex(mapping.InStock)

	return &indices, nil
}

// mapRowToFeedRow maps a raw Excel row to a FeedRow
func (p *Parser) mapRowToFeedRow(rawRow []string, rowNumber int, indices *ResolvedColumnIndices) (*types.FeedRow, []types.ParseError) {
	var errors []types.ParseError

	getValue := func(idx int) string {
		if idx == InvalidIndex || idx >= len(rawRow) {
			return ""
		}
		return strings.TrimSpace(rawRow[idx])
	}

	getStringPtr := func(idx int) *string {
		val := getValue(idx)
		if val == "" {
			return nil
		}
		return &val
	}

	externalID := getValue(indices.ExternalID)
	if externalID == "" {
		errors = append(errors, types.ParseError{
			RowNumber: &rowNumber,
			Field:     types.StringPtr("externalId"),
			Message:   "External ID is required",
		})
	}

	name := getValue(indices.Name)
	if name == "" {
		errors = append(errors, types.ParseError{
			RowNumber: &rowNumber,
			Field:     types.StringPtr("name"),
			Message:   "Name is required",
		})
	}

	priceStr := getValue(indices.Price)
	price, err := csv.ParsePrice(priceStr)
	if err != nil {
		errors = append(errors, types.ParseError{
			RowNumber:     &rowNumber,
			Field:         types.StringPtr("price"),
			Message:       "Invalid price value",
			OriginalValue: types.StringPtr(priceStr),
		})
	}

	var originalPrice *int64
	if originalStr := getValue(indices.OriginalPrice); originalStr != "" {
		parsed, err := csv.ParsePrice(originalStr)
		if err == nil && parsed > price {
			originalPrice = &parsed
		}
	}

	inStock := true
	switch strings.ToLower(getValue(indices.InStock)) {
	case "false", "0", "no", "out_of_stock", "outofstock":
		inStock = false
	}

	if len(errors) > 0 {
		return nil, errors
	}

	rawData, _ := json.Marshal(rawRow)

	row := &types.FeedRow{
		ExternalID:    externalID,
		Name:          name,
		Description:   getStringPtr(indices.Description),
		Category:      getStringPtr(indices.Category),
		ImageURL:      getStringPtr(indices.ImageURL),
		Price:         price,
		OriginalPrice: originalPrice,
		AffiliateURL:  getStringPtr(indices.AffiliateURL),
		InStock:       inStock,
		RowNumber:     rowNumber,
		RawData:       string(rawData),
	}

	return row, nil
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
