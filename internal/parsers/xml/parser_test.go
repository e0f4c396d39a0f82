package xml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedFixture() []byte {
	return []byte(`<?xml version="1.0" encoding="UTF-8"?>
<products>
  <product>
    <id>t-100</id>
    <title>Portable Blender</title>
    <price>19.99</price>
    <original_price>34.99</original_price>
    <image>https://img.example.com/b.jpg</image>
    <link>https://temu.example.com/t-100</link>
    <availability>in_stock</availability>
  </product>
  <product>
    <id>t-101</id>
    <title>Yoga Mat</title>
    <price>9.49</price>
    <availability>out_of_stock</availability>
  </product>
  <product>
    <id>t-102</id>
    <title>Broken Row</title>
    <price>n/a</price>
  </product>
</products>
`)
}

func TestParseProductFeed(t *testing.T) {
	parser := NewParser(XmlParserOptions{
		FieldMapping: GenericFieldMapping(),
	})

	result, err := parser.Parse(feedFixture())
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 2, result.ValidRows)
	require.Len(t, result.Rows, 2)

	first := result.Rows[0]
	assert.Equal(t, "t-100", first.ExternalID)
	assert.Equal(t, "Portable Blender", first.Name)
	assert.Equal(t, int64(1999), first.Price)
	require.NotNil(t, first.OriginalPrice)
	assert.Equal(t, int64(3499), *first.OriginalPrice)
	assert.True(t, first.InStock)

	second := result.Rows[1]
	assert.False(t, second.InStock)
	assert.Nil(t, second.OriginalPrice)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "price", *result.Errors[0].Field)
}

func TestDetectItemsPath(t *testing.T) {
	content := []byte(`<?xml version="1.0"?>
<rss><channel>
  <item><id>r1</id><title>Hat</title><price>4.99</price></item>
  <item><id>r2</id><title>Scarf</title><price>7.99</price></item>
</channel></rss>
`)

	parser := NewParser(XmlParserOptions{
		FieldMapping: GenericFieldMapping(),
	})

	result, err := parser.Parse(content)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ValidRows)
}

func TestParseSingleItemWrapped(t *testing.T) {
	content := []byte(`<products><product><id>x</id><title>Solo</title><price>1.00</price></product></products>`)

	parser := NewParser(XmlParserOptions{
		ItemsPath:    "products.product",
		FieldMapping: GenericFieldMapping(),
	})

	result, err := parser.Parse(content)
	require.NoError(t, err)
	require.Equal(t, 1, result.ValidRows)
	assert.Equal(t, "Solo", result.Rows[0].Name)
}

func TestParseMalformedXML(t *testing.T) {
	parser := NewParser(XmlParserOptions{
		FieldMapping: GenericFieldMapping(),
	})

	_, err := parser.Parse([]byte(`<products><product><id>1</id>`))
	assert.Error(t, err)
}
