package xml

// FieldExtractor is a function that extracts a value from an XML item
type FieldExtractor func(map[string]interface{}) string

// XmlFieldMapping maps FeedRow field names to XML paths
// Paths use dot notation for nested elements (e.g., "product.price.value")
type XmlFieldMapping struct {
	ExternalID    string  `json:"externalId"` // Required
	Name          string  `json:"name"`       // Required
	Price         string  `json:"price"`      // Required
	Description   *string `json:"description,omitempty"`
	Category      *string `json:"category,omitempty"`
	ImageURL      *string `json:"imageUrl,omitempty"`
	OriginalPrice *string `json:"originalPrice,omitempty"`
	AffiliateURL  *string `json:"affiliateUrl,omitempty"`
	InStock       *string `json:"inStock,omitempty"`

	// Function extractors for complex field extraction
	NameExtractor  FieldExtractor `json:"-"`
	PriceExtractor FieldExtractor `json:"-"`
}

// XmlParserOptions represents XML parser options
type XmlParserOptions struct {
	ItemsPath       string          `json:"itemsPath"` // Path to items array (e.g., "products.product")
	FieldMapping    XmlFieldMapping `json:"fieldMapping"`
	Encoding        string          `json:"encoding,omitempty"`
	AttributePrefix string          `json:"attributePrefix,omitempty"` // Default: "@_"
}

// DefaultXmlOptions returns default XML parser options
func DefaultXmlOptions() XmlParserOptions {
	return XmlParserOptions{
		AttributePrefix: "@_",
		Encoding:        "auto",
	}
}

// GenericFieldMapping returns the field mapping matching the element
// names most platform product feeds use.
func GenericFieldMapping() XmlFieldMapping {
	strPtr := func(s string) *string { return &s }
	return XmlFieldMapping{
		ExternalID:    "id",
		Name:          "title",
		Price:         "price",
		Description:   strPtr("description"),
		Category:      strPtr("category"),
		ImageURL:      strPtr("image"),
		OriginalPrice: strPtr("original_price"),
		AffiliateURL:  strPtr("link"),
		InStock:       strPtr("availability"),
	}
}
