package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/globaldeals/catalog-service/internal/parsers/csv"
	"github.com/globaldeals/catalog-service/internal/parsers/xlsx"
	"github.com/globaldeals/catalog-service/internal/parsers/xml"
	"github.com/globaldeals/catalog-service/internal/platform"
	"github.com/globaldeals/catalog-service/internal/types"
)

var (
	parsePlatform string
	parseOutput   string
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a local feed file without importing it",
	Long: `Parse a local feed file (CSV, XML, or XLSX) using the platform's column
mapping and report parsing statistics: row counts, validation errors, and a
sample of the parsed rows. Nothing is written to the database.`,
	Example: `  catalog-service parse ./data/aliexpress.csv --platform aliexpress
  catalog-service parse ./data/temu.xml --platform temu --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parsePlatform, "platform", "", "Platform slug (required)")
	parseCmd.Flags().StringVar(&parseOutput, "output", "table", "Output format: table or json")
	parseCmd.MarkFlagRequired("platform")
}

func runParse(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	parsePlatform = platform.Normalize(parsePlatform)
	if !platform.IsValid(parsePlatform) {
		return fmt.Errorf("invalid platform: %s\nValid platforms: %s",
			parsePlatform, strings.Join(platform.ValidPlatforms(), ", "))
	}

	logger.Info().Str("file", filePath).Msg("Reading file")
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	logger.Info().Str("file", filePath).Msgf("Read %d bytes", len(content))

	fileType := types.DetectFileType(filePath)
	logger.Info().Str("platform", parsePlatform).Str("type", string(fileType)).Msg("Parsing file")

	result, err := parseFile(content, fileType)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	switch strings.ToLower(parseOutput) {
	case "json":
		return outputParseJSON(result)
	case "table":
		outputParseTable(parsePlatform, result)
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", parseOutput)
	}
}

func parseFile(content []byte, fileType types.FileType) (*types.ParseResult, error) {
	switch fileType {
	case types.FileTypeXML:
		parser := xml.NewParser(xml.XmlParserOptions{FieldMapping: xml.GenericFieldMapping()})
		return parser.Parse(content)
	case types.FileTypeXLSX:
		parser := xlsx.NewParser(xlsx.XlsxParserOptions{
			HasHeader:     true,
			SkipEmptyRows: true,
			ColumnMapping: xlsx.GenericMapping(),
		})
		return parser.Parse(content)
	default:
		mapping := csv.GenericMapping()
		if parsePlatform == platform.AliExpress {
			mapping = csv.AliExpressMapping()
		}
		parser := csv.NewParser(csv.CsvParserOptions{
			HasHeader:     true,
			SkipEmptyRows: true,
			ColumnMapping: mapping,
		})
		parser.SetAlternativeMapping(csv.GenericMapping())
		return parser.Parse(content)
	}
}

func outputParseTable(platformSlug string, result *types.ParseResult) {
	fmt.Printf("\nParse Results for %s\n", platformSlug)
	fmt.Println(strings.Repeat("-", 60))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Metric\tValue\n")
	fmt.Fprintf(w, "------\t-----\n")
	fmt.Fprintf(w, "Total Rows\t%d\n", result.TotalRows)
	fmt.Fprintf(w, "Valid Rows\t%d\n", result.ValidRows)
	fmt.Fprintf(w, "Invalid Rows\t%d\n", result.TotalRows-result.ValidRows)
	fmt.Fprintf(w, "Errors\t%d\n", len(result.Errors))
	fmt.Fprintf(w, "Warnings\t%d\n", len(result.Warnings))
	w.Flush()

	// Show first few errors if any
	if len(result.Errors) > 0 {
		fmt.Printf("\nFirst %d Errors:\n", minInt(len(result.Errors), 10))
		fmt.Println(strings.Repeat("-", 60))
		for i, err := range result.Errors {
			if i >= 10 {
				break
			}
			rowNum := "-"
			if err.RowNumber != nil {
				rowNum = fmt.Sprintf("%d", *err.RowNumber)
			}
			field := "-"
			if err.Field != nil {
				field = *err.Field
			}
			fmt.Printf("Row %s, Field '%s': %s\n", rowNum, field, err.Message)
		}
		if len(result.Errors) > 10 {
			fmt.Printf("... and %d more errors\n", len(result.Errors)-10)
		}
	}

	// Show sample of valid rows
	if len(result.Rows) > 0 {
		fmt.Printf("\nSample Rows (first %d):\n", minInt(len(result.Rows), 5))
		fmt.Println(strings.Repeat("-", 60))
		for i, row := range result.Rows {
			if i >= 5 {
				break
			}
			fmt.Printf("%d. [%s] %s (%s)\n", i+1, row.ExternalID, row.Name, csv.FormatCents(row.Price))
		}
	}
}

func outputParseJSON(result *types.ParseResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
