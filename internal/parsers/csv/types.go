package csv

// CsvDelimiter represents supported CSV delimiters
type CsvDelimiter string

const (
	DelimiterComma     CsvDelimiter = ","
	DelimiterSemicolon CsvDelimiter = ";"
	DelimiterTab       CsvDelimiter = "\t"
)

// CsvEncoding represents supported encodings
type CsvEncoding string

const (
	EncodingUTF8        CsvEncoding = "utf-8"
	EncodingWindows1252 CsvEncoding = "windows-1252"
	EncodingISO88599    CsvEncoding = "iso-8859-9"
)

// CsvColumnMapping maps FeedRow field names to CSV column indices or
// header names. Required fields are plain strings; optional fields are
// pointers so "not mapped" is distinguishable from "mapped to column 0".
type CsvColumnMapping struct {
	ExternalID    string  `json:"externalId"`
	Name          string  `json:"name"`
	Price         string  `json:"price"`
	Description   *string `json:"description,omitempty"`
	Category      *string `json:"category,omitempty"`
	ImageURL      *string `json:"imageUrl,omitempty"`
	OriginalPrice *string `json:"originalPrice,omitempty"`
	AffiliateURL  *string `json:"affiliateUrl,omitempty"`
	InStock       *string `json:"inStock,omitempty"`
}

// AliExpressMapping returns the column mapping for AliExpress affiliate
// export files.
func AliExpressMapping() *CsvColumnMapping {
	strPtr := func(s string) *string { return &s }
	return &CsvColumnMapping{
		ExternalID:    "ProductId",
		Name:          "Product Title",
		Price:         "Discount Price",
		OriginalPrice: strPtr("Original Price"),
		ImageURL:      strPtr("Image Url"),
		AffiliateURL:  strPtr("Promotion Link"),
		Category:      strPtr("Category"),
	}
}

// GenericMapping returns a mapping matching the lowercase snake_case
// headers most platform exports use. Used as the fallback when the
// platform-specific mapping matches nothing.
func GenericMapping() *CsvColumnMapping {
	strPtr := func(s string) *string { return &s }
	return &CsvColumnMapping{
		ExternalID:    "product_id",
		Name:          "title",
		Price:         "price",
		OriginalPrice: strPtr("original_price"),
		ImageURL:      strPtr("image"),
		AffiliateURL:  strPtr("url"),
		Category:      strPtr("category"),
		Description:   strPtr("description"),
		InStock:       strPtr("in_stock"),
	}
}

// CsvParserOptions represents CSV parser options
type CsvParserOptions struct {
	Delimiter     CsvDelimiter      `json:"delimiter,omitempty"`
	Encoding      CsvEncoding       `json:"encoding,omitempty"`
	HasHeader     bool              `json:"hasHeader,omitempty"`
	ColumnMapping *CsvColumnMapping `json:"columnMapping,omitempty"`
	SkipEmptyRows bool              `json:"skipEmptyRows,omitempty"`
	QuoteChar     rune              `json:"quoteChar,omitempty"`
}

// DefaultOptions returns default CSV parser options
func DefaultOptions() CsvParserOptions {
	return CsvParserOptions{
		Delimiter:     DelimiterComma,
		Encoding:      EncodingUTF8,
		HasHeader:     true,
		SkipEmptyRows: true,
		QuoteChar:     '"',
	}
}
