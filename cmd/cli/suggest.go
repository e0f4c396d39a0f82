package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/globaldeals/catalog-service/internal/database"
	"github.com/globaldeals/catalog-service/internal/suggest"
)

var suggestDelay time.Duration

// suggestCmd represents the suggest command
var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Interactive search suggestion console",
	Long: `Read queries from stdin and print typeahead suggestions, debounced the
way the storefront search box behaves: rapid input coalesces into one lookup
and a newer query cancels the previous one mid-flight. Useful for tuning the
suggestion ranking against live catalog data.`,
	RunE: runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)

	suggestCmd.Flags().DurationVar(&suggestDelay, "delay", 250*time.Millisecond, "Debounce quiet period")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	store := database.NewStore(database.Pool())

	fetch := func(ctx context.Context, query string) (suggest.Result, error) {
		names, category, err := store.Suggest(ctx, query, 8)
		if err != nil {
			return suggest.Result{}, err
		}
		return suggest.Result{Suggestions: names, DetectedCategory: category}, nil
	}

	deliver := func(result suggest.Result, err error) {
		if err != nil {
			fmt.Printf("! %v\n", err)
			return
		}
		if len(result.Suggestions) == 0 {
			fmt.Printf("  (no suggestions for %q)\n", result.Query)
			return
		}
		for _, name := range result.Suggestions {
			fmt.Printf("  > %s\n", name)
		}
		if result.DetectedCategory != "" {
			fmt.Printf("  in %s\n", result.DetectedCategory)
		}
	}

	debouncer := suggest.NewDebouncer(suggestDelay, fetch, deliver)
	defer debouncer.Stop()

	fmt.Println("Type a query and press enter (empty line clears, Ctrl+D quits):")

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		debouncer.Query(ctx, strings.TrimSpace(scanner.Text()))
	}

	// Let a trailing query settle before exiting.
	time.Sleep(suggestDelay + 100*time.Millisecond)
	return scanner.Err()
}
