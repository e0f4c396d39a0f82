package csv

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
)

var (
	currencyPrefix = regexp.MustCompile(`^(US|USD|EUR|GBP|CNY|TRY)\s*`)
	currencySuffix = regexp.MustCompile(`\s*(USD|EUR|GBP|CNY|TRY)\s*$`)
)

// ParsePrice parses a price string to cents (integer)
// Handles various formats: "12.99", "12,99", "1.299,00", "US $12.99"
func ParsePrice(value string) (int64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty price value")
	}

	// Remove currency symbols and whitespace
	cleaned := strings.TrimSpace(value)
	cleaned = strings.Map(func(r rune) rune {
		// Remove currency symbols and thousands separators (space)
		if r == '€' || r == '$' || r == '£' || r == '₹' ||
			r == '¥' || r == '¢' || r == ' ' || r == '\u00A0' { // non-breaking space
			return -1
		}
		return r
	}, cleaned)

	// Remove currency codes ("US $12.99", "12.99 USD")
	cleaned = strings.ToUpper(cleaned)
	cleaned = currencyPrefix.ReplaceAllString(cleaned, "")
	cleaned = currencySuffix.ReplaceAllString(cleaned, "")

	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("no numeric value found")
	}

	// Determine decimal separator
	// If the comma comes after the dot, comma is decimal (European)
	// If the dot comes after the comma, dot is decimal (US)
	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")

	if lastComma > lastDot {
		// European format: 1.234,56 -> comma is decimal
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else if lastDot > lastComma {
		// US format: 1,234.56 -> just remove commas
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	result, err := parseFloat(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid price format: %w", err)
	}
	if result < 0 {
		return 0, fmt.Errorf("negative price")
	}

	// Convert to cents
	return int64(math.Round(result * 100)), nil
}

// parseFloat safely parses a float with better error handling
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}

	hasDigit := false
	for _, r := range s {
		if unicode.IsDigit(r) {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return 0, fmt.Errorf("no digits found")
	}

	var result float64
	_, err := fmt.Sscanf(s, "%f", &result)
	if err != nil {
		return 0, err
	}

	return result, nil
}

// FormatCents formats cents as a decimal string (e.g., 1299 -> "12.99")
func FormatCents(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100.0)
}
