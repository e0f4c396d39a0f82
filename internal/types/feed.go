package types

import "strings"

// FileType represents supported feed file types
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeXML  FileType = "xml"
	FileTypeXLSX FileType = "xlsx"
	FileTypeZIP  FileType = "zip"
)

// DetectFileType maps a filename to its feed file type. Unknown
// extensions default to CSV, the dominant format across platforms.
func DetectFileType(filename string) FileType {
	switch strings.ToLower(strings.TrimPrefix(extOf(filename), ".")) {
	case "xml":
		return FileTypeXML
	case "xlsx", "xls":
		return FileTypeXLSX
	case "zip":
		return FileTypeZIP
	default:
		return FileTypeCSV
	}
}

func extOf(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return filename[idx:]
}

// FeedRow represents a normalized product row from any platform's feed
type FeedRow struct {
	ExternalID    string  `json:"externalId"`
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	Category      *string `json:"category,omitempty"`
	ImageURL      *string `json:"imageUrl,omitempty"`
	Price         int64   `json:"price"` // cents
	OriginalPrice *int64  `json:"originalPrice,omitempty"`
	AffiliateURL  *string `json:"affiliateUrl,omitempty"`
	InStock       bool    `json:"inStock"`
	RowNumber     int     `json:"rowNumber"`
	RawData       string  `json:"rawData"`
}

// ParseError represents a parsing error
type ParseError struct {
	RowNumber     *int    `json:"rowNumber,omitempty"`
	Field         *string `json:"field,omitempty"`
	Message       string  `json:"message"`
	OriginalValue *string `json:"originalValue,omitempty"`
}

// ParseWarning represents a parsing warning
type ParseWarning struct {
	RowNumber *int    `json:"rowNumber,omitempty"`
	Field     *string `json:"field,omitempty"`
	Message   string  `json:"message"`
}

// ParseResult represents result of parsing one feed file
type ParseResult struct {
	Rows      []FeedRow      `json:"rows"`
	Errors    []ParseError   `json:"errors,omitempty"`
	Warnings  []ParseWarning `json:"warnings,omitempty"`
	TotalRows int            `json:"totalRows"`
	ValidRows int            `json:"validRows"`
}

// ExpandedFile represents a file expanded from a ZIP archive
type ExpandedFile struct {
	InnerFilename string   `json:"innerFilename"`
	Type          FileType `json:"type"`
	Content       []byte   `json:"content"`
}

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// Int64Ptr returns a pointer to the given int64
func Int64Ptr(i int64) *int64 {
	return &i
}
