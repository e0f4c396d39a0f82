package xlsx

// XlsxColumnIndex represents a column index that can be either numeric or a header name
type XlsxColumnIndex struct {
	// Index is the numeric column index (0-based)
	Index *int
	// Header is the header name to match
	Header *string
}

// NewNumericIndex creates a column index from a numeric position
func NewNumericIndex(index int) XlsxColumnIndex {
	return XlsxColumnIndex{Index: &index}
}

// NewHeaderIndex creates a column index from a header name
func NewHeaderIndex(header string) XlsxColumnIndex {
	return XlsxColumnIndex{Header: &header}
}

// IsNumeric returns true if this is a numeric index
func (c XlsxColumnIndex) IsNumeric() bool {
	return c.Index != nil
}

// IsHeader returns true if this is a header-based index
func (c XlsxColumnIndex) IsHeader() bool {
	return c.Header != nil
}

// XlsxColumnMapping maps FeedRow field names to XLSX column indices or header names
type XlsxColumnMapping struct {
	ExternalID    XlsxColumnIndex  `json:"externalId"` // Required
	Name          XlsxColumnIndex  `json:"name"`       // Required
	Price         XlsxColumnIndex  `json:"price"`      // Required
	Description   *XlsxColumnIndex `json:"description,omitempty"`
	Category      *XlsxColumnIndex `json:"category,omitempty"`
	ImageURL      *XlsxColumnIndex `json:"imageUrl,omitempty"`
	OriginalPrice *XlsxColumnIndex `json:"originalPrice,omitempty"`
	AffiliateURL  *XlsxColumnIndex `json:"affiliateUrl,omitempty"`
	InStock       *XlsxColumnIndex `json:"inStock,omitempty"`
}

// GenericMapping matches the common header names generic feed exports use.
func GenericMapping() *XlsxColumnMapping {
	desc := NewHeaderIndex("description")
	img := NewHeaderIndex("image")
	orig := NewHeaderIndex("original_price")
	link := NewHeaderIndex("url")
	cat := NewHeaderIndex("category")
	stock := NewHeaderIndex("in_stock")
	return &XlsxColumnMapping{
		ExternalID:    NewHeaderIndex("product_id"),
		Name:          NewHeaderIndex("title"),
		Price:         NewHeaderIndex("price"),
		Description:   &desc,
		ImageURL:      &img,
		OriginalPrice: &orig,
		AffiliateURL:  &link,
		Category:      &cat,
		InStock:       &stock,
	}
}

// XlsxParserOptions represents XLSX parser options
type XlsxParserOptions struct {
	// ColumnMapping is the mapping configuration
	ColumnMapping *XlsxColumnMapping `json:"columnMapping,omitempty"`
	// HasHeader indicates whether the first data row is a header
	HasHeader bool `json:"hasHeader,omitempty"`
	// HeaderRowCount is the number of rows to skip before data starts
	HeaderRowCount int `json:"headerRowCount,omitempty"`
	// SkipEmptyRows indicates whether to skip empty rows
	SkipEmptyRows bool `json:"skipEmptyRows,omitempty"`
	// SheetNameOrIndex specifies which sheet to parse (default: first sheet)
	// Can be a string (sheet name) or int (sheet index, 0-based)
	SheetNameOrIndex interface{} `json:"sheetNameOrIndex,omitempty"`
}

// DefaultOptions returns default XLSX parser options
func DefaultOptions() XlsxParserOptions {
	return XlsxParserOptions{
		HasHeader:      true,
		HeaderRowCount: 0,
		SkipEmptyRows:  true,
	}
}

// ResolvedColumnIndices contains resolved numeric column indices
type ResolvedColumnIndices struct {
	ExternalID    int
	Name          int
	Price         int
	Description   int
	Category      int
	ImageURL      int
	OriginalPrice int
	AffiliateURL  int
	InStock       int
}

// InvalidIndex indicates a column was not found or not specified
const InvalidIndex = -1

// NewResolvedColumnIndices creates a new ResolvedColumnIndices with all invalid indices
func NewResolvedColumnIndices() ResolvedColumnIndices {
	return ResolvedColumnIndices{
		ExternalID:    InvalidIndex,
		Name:          InvalidIndex,
		Price:         InvalidIndex,
		Description:   InvalidIndex,
		Category:      InvalidIndex,
		ImageURL:      InvalidIndex,
		OriginalPrice: InvalidIndex,
		AffiliateURL:  InvalidIndex,
		InStock:       InvalidIndex,
	}
}
