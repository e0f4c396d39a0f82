package xml

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/globaldeals/catalog-service/internal/parsers/charset"
	"github.com/globaldeals/catalog-service/internal/parsers/csv"
	"github.com/globaldeals/catalog-service/internal/types"
)

// Parser implements XML parsing with item path detection and field mapping
type Parser struct {
	options            XmlParserOptions
	alternativeMapping *XmlFieldMapping
}

// NewParser creates a new XML parser with the given options
func NewParser(options XmlParserOptions) *Parser {
	if options.AttributePrefix == "" {
		options.AttributePrefix = "@_"
	}
	if options.Encoding == "" {
		options.Encoding = "auto"
	}
	return &Parser{
		options: options,
	}
}

// SetAlternativeMapping sets an alternative field mapping to try if the primary fails
func (p *Parser) SetAlternativeMapping(mapping *XmlFieldMapping) {
	p.alternativeMapping = mapping
}

// Parse parses XML content into normalized feed rows
func (p *Parser) Parse(content []byte) (*types.ParseResult, error) {
	// Detect and handle encoding
	decoded, err := p.decodeContent(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	// Parse XML into generic map structure
	data, err := p.parseXMLToMap(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	// Try to find items using configured path
	itemsPath := p.options.ItemsPath
	if itemsPath == "" {
		itemsPath = p.detectItemsPath(data)
		if itemsPath == "" {
			return nil, fmt.Errorf("could not detect items path in XML")
		}
	}

	items, err := p.getItemsAtPath(data, itemsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get items at path %s: %w", itemsPath, err)
	}

	// Parse each item using primary field mapping
	result := p.parseItems(items, p.options.FieldMapping)

	// If no valid rows, try alternative mapping
	if result.ValidRows == 0 && p.alternativeMapping != nil {
		result = p.parseItems(items, *p.alternativeMapping)
	}

	return result, nil
}

// decodeContent handles encoding detection and conversion to UTF-8
func (p *Parser) decodeContent(content []byte) (string, error) {
	// Check for BOM
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return string(content[3:]), nil
	}

	enc := p.options.Encoding
	if enc == "" || enc == "auto" {
		enc = p.detectEncodingFromDeclaration(content)
		if enc == "" {
			enc = string(charset.DetectEncoding(content))
		}
	}

	decoded, err := charset.Decode(content, charset.Encoding(enc))
	if err != nil {
		// Fallback to treating as UTF-8
		return string(content), nil
	}

	return decoded, nil
}

var xmlDeclEncoding = regexp.MustCompile(`<\?xml[^?]*encoding=["']([^"']+)["'][^?]*\?>`)

// detectEncodingFromDeclaration extracts encoding from the XML declaration
func (p *Parser) detectEncodingFromDeclaration(content []byte) string {
	head := content
	if len(head) > 200 {
		head = head[:200]
	}
	if match := xmlDeclEncoding.FindSubmatch(head); len(match) > 1 {
		enc := strings.ToLower(string(match[1]))
		switch enc {
		case "windows-1252", "cp1252", "latin1", "iso-8859-1":
			return string(charset.EncodingWindows1252)
		case "iso-8859-9", "latin5":
			return string(charset.EncodingISO88599)
		default:
			return enc
		}
	}
	return ""
}

// parseXMLToMap parses XML content into a nested map structure
func (p *Parser) parseXMLToMap(content string) (map[string]interface{}, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil // Already handled encoding
	}

	return p.decodeElement(decoder, nil)
}

// decodeElement recursively decodes XML elements into maps
func (p *Parser) decodeElement(decoder *xml.Decoder, start *xml.StartElement) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	// Add attributes if present
	if start != nil {
		for _, attr := range start.Attr {
			key := p.options.AttributePrefix + attr.Name.Local
			result[key] = attr.Value
		}
	}

	var textContent strings.Builder

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			childName := t.Name.Local

			// Recursively decode child element
			childValue, err := p.decodeElement(decoder, &t)
			if err != nil {
				return nil, err
			}

			// Handle repeated elements (arrays)
			if existing, exists := result[childName]; exists {
				switch v := existing.(type) {
				case []interface{}:
					result[childName] = append(v, childValue)
				default:
					result[childName] = []interface{}{v, childValue}
				}
			} else {
				result[childName] = childValue
			}

		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text != "" {
				textContent.WriteString(text)
			}

		case xml.EndElement:
			if text := textContent.String(); text != "" {
				result["#text"] = text
			}
			return result, nil
		}
	}

	if text := textContent.String(); text != "" {
		result["#text"] = text
	}

	return result, nil
}

// detectItemsPath tries to find the path to the items array in the XML data
func (p *Parser) detectItemsPath(data map[string]interface{}) string {
	// Common item paths across platform feed formats
	commonPaths := []string{
		"products.product",
		"Products.Product",
		"items.item",
		"Items.Item",
		"offers.offer",
		"Offers.Offer",
		"rss.channel.item",
		"feed.entry",
		"catalog.product",
		"Catalog.Product",
	}

	for _, path := range commonPaths {
		if items, err := p.getItemsAtPath(data, path); err == nil && len(items) > 0 {
			return path
		}
	}

	// Try to find arrays in the data (depth-first search)
	return p.findArrayPath(data, "", 3)
}

// findArrayPath recursively searches for array paths
func (p *Parser) findArrayPath(data map[string]interface{}, prefix string, maxDepth int) string {
	if maxDepth <= 0 {
		return ""
	}

	for key, value := range data {
		currentPath := key
		if prefix != "" {
			currentPath = prefix + "." + key
		}

		switch v := value.(type) {
		case []interface{}:
			if len(v) > 0 {
				return currentPath
			}
		case map[string]interface{}:
			if found := p.findArrayPath(v, currentPath, maxDepth-1); found != "" {
				return found
			}
		}
	}

	return ""
}

// getItemsAtPath navigates to the specified path and returns items as a slice
func (p *Parser) getItemsAtPath(data map[string]interface{}, path string) ([]map[string]interface{}, error) {
	parts := strings.Split(path, ".")

	current := data
	for i, part := range parts {
		value, ok := current[part]
		if !ok {
			// Try case-insensitive match
			for k, v := range current {
				if strings.EqualFold(k, part) {
					value = v
					ok = true
					break
				}
			}
		}
		if !ok {
			return nil, fmt.Errorf("path segment '%s' not found", part)
		}

		// Last segment should be an array or single item
		if i == len(parts)-1 {
			return p.toItemSlice(value)
		}

		switch v := value.(type) {
		case map[string]interface{}:
			current = v
		default:
			return nil, fmt.Errorf("cannot navigate through %T at '%s'", value, part)
		}
	}

	return nil, fmt.Errorf("path not found: %s", path)
}

// toItemSlice converts a value to a slice of maps
func (p *Parser) toItemSlice(value interface{}) ([]map[string]interface{}, error) {
	switch v := value.(type) {
	case []interface{}:
		result := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				result = append(result, m)
			}
		}
		return result, nil
	case map[string]interface{}:
		// Single item - wrap in slice
		return []map[string]interface{}{v}, nil
	default:
		return nil, fmt.Errorf("expected array or map, got %T", value)
	}
}

// parseItems parses a slice of items into feed rows
func (p *Parser) parseItems(items []map[string]interface{}, mapping XmlFieldMapping) *types.ParseResult {
	result := &types.ParseResult{
		TotalRows: len(items),
		Rows:      make([]types.FeedRow, 0, len(items)),
		Errors:    make([]types.ParseError, 0),
		Warnings:  make([]types.ParseWarning, 0),
	}

	for i, item := range items {
		rowNumber := i + 1
		row, errors := p.mapItemToRow(item, rowNumber, mapping)

		if len(errors) > 0 {
			result.Errors = append(result.Errors, errors...)
			continue
		}

		result.Rows = append(result.Rows, *row)
		result.ValidRows++
	}

	return result
}

// mapItemToRow maps a single XML item to a FeedRow
func (p *Parser) mapItemToRow(item map[string]interface{}, rowNumber int, mapping XmlFieldMapping) (*types.FeedRow, []types.ParseError) {
	var errors []types.ParseError

	extractString := func(path *string) *string {
		if path == nil {
			return nil
		}
		return p.extractStringValue(item, *path)
	}

	// Extract external ID (required)
	var externalID string
	if idVal := p.extractStringValue(item, mapping.ExternalID); idVal != nil {
		externalID = *idVal
	}
	if externalID == "" {
		errors = append(errors, types.ParseError{
			RowNumber: &rowNumber,
			Field:     types.StringPtr("externalId"),
			Message:   "External ID is required",
		})
	}

	// Extract name (required)
	var name string
	if mapping.NameExtractor != nil {
		name = mapping.NameExtractor(item)
	} else {
		if nameVal := p.extractStringValue(item, mapping.Name); nameVal != nil {
			name = *nameVal
		}
	}
	if name == "" {
		errors = append(errors, types.ParseError{
			RowNumber: &rowNumber,
			Field:     types.StringPtr("name"),
			Message:   "Name is required",
		})
	}

	// Extract price (required)
	var price int64
	var priceStr string
	if mapping.PriceExtractor != nil {
		priceStr = mapping.PriceExtractor(item)
	} else {
		if priceVal := p.extractStringValue(item, mapping.Price); priceVal != nil {
			priceStr = *priceVal
		}
	}
	if priceStr == "" {
		errors = append(errors, types.ParseError{
			RowNumber: &rowNumber,
			Field:     types.StringPtr("price"),
			Message:   "Price is required",
		})
	} else {
		var err error
		price, err = csv.ParsePrice(priceStr)
		if err != nil {
			errors = append(errors, types.ParseError{
				RowNumber:     &rowNumber,
				Field:         types.StringPtr("price"),
				Message:       "Invalid price value",
				OriginalValue: &priceStr,
			})
		}
	}

	if len(errors) > 0 {
		return nil, errors
	}

	var originalPrice *int64
	if originalStr := extractString(mapping.OriginalPrice); originalStr != nil {
		if parsed, err := csv.ParsePrice(*originalStr); err == nil && parsed > price {
			originalPrice = &parsed
		}
	}

	inStock := true
	if stockVal := extractString(mapping.InStock); stockVal != nil {
		switch strings.ToLower(*stockVal) {
		case "false", "0", "no", "out_of_stock", "outofstock", "out of stock":
			inStock = false
		}
	}

	// Build raw data JSON
	rawDataJSON, _ := json.Marshal(item)

	row := &types.FeedRow{
		ExternalID:    externalID,
		Name:          name,
		Description:   extractString(mapping.Description),
		Category:      extractString(mapping.Category),
		ImageURL:      extractString(mapping.ImageURL),
		Price:         price,
		OriginalPrice: originalPrice,
		AffiliateURL:  extractString(mapping.AffiliateURL),
		InStock:       inStock,
		RowNumber:     rowNumber,
		RawData:       string(rawDataJSON),
	}

	return row, nil
}

// extractStringValue extracts a string value from an item using a dot-notation path
func (p *Parser) extractStringValue(item map[string]interface{}, path string) *string {
	parts := strings.Split(path, ".")

	var current interface{} = item
	for _, part := range parts {
		switch v := current.(type) {
		case map[string]interface{}:
			var found bool
			current, found = v[part]
			if !found {
				// Try case-insensitive match
				for k, val := range v {
					if strings.EqualFold(k, part) {
						current = val
						found = true
						break
					}
				}
			}
			if !found {
				return nil
			}
		default:
			return nil
		}
	}

	return p.valueToString(current)
}

// valueToString converts various types to string
func (p *Parser) valueToString(value interface{}) *string {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		return &trimmed
	case float64:
		str := fmt.Sprintf("%g", v)
		return &str
	case bool:
		str := fmt.Sprintf("%t", v)
		return &str
	case map[string]interface{}:
		// Handle objects with text content
		for _, textKey := range []string{"#text", "_text"} {
			if textVal, ok := v[textKey]; ok {
				return p.valueToString(textVal)
			}
		}
		return nil
	default:
		str := strings.TrimSpace(fmt.Sprintf("%v", v))
		if str == "" {
			return nil
		}
		return &str
	}
}
