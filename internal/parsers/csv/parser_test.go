package csv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aliexpressFixture() []byte {
	return []byte(`ProductId,Product Title,Image Url,Discount Price,Original Price,Promotion Link
1005001,Wireless Earbuds Pro,https://img.example.com/1.jpg,US $12.99,US $25.99,https://s.click.example.com/1
1005002,USB-C Cable 2m,https://img.example.com/2.jpg,US $2.49,,https://s.click.example.com/2
1005003,,https://img.example.com/3.jpg,US $5.00,,https://s.click.example.com/3
`)
}

func TestParseAliExpressExport(t *testing.T) {
	parser := NewParser(CsvParserOptions{
		HasHeader:     true,
		SkipEmptyRows: true,
		ColumnMapping: AliExpressMapping(),
	})

	result, err := parser.Parse(aliexpressFixture())
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 2, result.ValidRows)
	require.Len(t, result.Rows, 2)

	first := result.Rows[0]
	assert.Equal(t, "1005001", first.ExternalID)
	assert.Equal(t, "Wireless Earbuds Pro", first.Name)
	assert.Equal(t, int64(1299), first.Price)
	require.NotNil(t, first.OriginalPrice)
	assert.Equal(t, int64(2599), *first.OriginalPrice)
	require.NotNil(t, first.AffiliateURL)
	assert.Equal(t, "https://s.click.example.com/1", *first.AffiliateURL)
	assert.True(t, first.InStock)

	// Second row has no original price; stays nil.
	assert.Nil(t, result.Rows[1].OriginalPrice)

	// Third row is missing the title.
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "name", *result.Errors[0].Field)
}

func TestParseSemicolonDelimited(t *testing.T) {
	content := []byte(`product_id;title;price;in_stock
a1;Phone Case;3,99;true
a2;Screen Protector;1,49;false
`)

	parser := NewParser(CsvParserOptions{
		HasHeader:     true,
		SkipEmptyRows: true,
		ColumnMapping: GenericMapping(),
	})

	result, err := parser.Parse(content)
	require.NoError(t, err)
	require.Equal(t, 2, result.ValidRows)

	assert.Equal(t, int64(399), result.Rows[0].Price)
	assert.True(t, result.Rows[0].InStock)
	assert.Equal(t, int64(149), result.Rows[1].Price)
	assert.False(t, result.Rows[1].InStock)
}

func TestParseFallsBackToAlternativeMapping(t *testing.T) {
	content := []byte(`product_id,title,price
b1,Desk Lamp,14.99
`)

	parser := NewParser(CsvParserOptions{
		HasHeader:     true,
		SkipEmptyRows: true,
		ColumnMapping: AliExpressMapping(),
	})
	parser.SetAlternativeMapping(GenericMapping())

	result, err := parser.Parse(content)
	require.NoError(t, err)
	require.Equal(t, 1, result.ValidRows)
	assert.Equal(t, "Desk Lamp", result.Rows[0].Name)
	assert.Equal(t, int64(1499), result.Rows[0].Price)
}

func TestParseQuotedFields(t *testing.T) {
	content := []byte(`product_id,title,price
c1,"Lamp, Desk, ""Nordic""",9.99
`)

	parser := NewParser(CsvParserOptions{
		HasHeader:     true,
		SkipEmptyRows: true,
		ColumnMapping: GenericMapping(),
	})

	result, err := parser.Parse(content)
	require.NoError(t, err)
	require.Equal(t, 1, result.ValidRows)
	assert.Equal(t, `Lamp, Desk, "Nordic"`, result.Rows[0].Name)
}

func TestParsePriceFormats(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.99", 1299, false},
		{"12,99", 1299, false},
		{"1.299,00", 129900, false},
		{"1,299.00", 129900, false},
		{"US $2.49", 249, false},
		{"€5", 500, false},
		{"12.99 USD", 1299, false},
		{"0", 0, false},
		{"", 0, true},
		{"free", 0, true},
		{"-4.99", 0, true},
	}

	for _, tt := range tests {
		got, err := ParsePrice(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, DelimiterSemicolon, DetectDelimiter("a;b;c\n1;2;3\n"))
	assert.Equal(t, DelimiterComma, DetectDelimiter("a,b,c\n1,2,3\n"))
	assert.Equal(t, DelimiterTab, DetectDelimiter("a\tb\tc\n1\t2\t3\n"))
}
