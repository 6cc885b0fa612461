package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/billmal071/annas/internal/anna"
	"github.com/billmal071/annas/internal/tui"
)

// summaryLimit is how many results are printed after a search
const summaryLimit = 10

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query...>",
		Short: "Search for books",
		Long: `Search Anna's Archive for books matching the query.

All arguments are joined into one query. The first results are printed and
the full list is saved as JSON to search_results.json in the download
directory.

Examples:
  annas search "clean code"
  annas search golang programming`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, strings.Join(args, " "))
		},
	}
}

func (a *app) runSearch(cmd *cobra.Command, query string) error {
	out := cmd.OutOrStdout()

	client, err := anna.NewClient(a.cfg, a.clients, a.log)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Searching for: %s\n", query)
	a.Printf(out, "Fetching %s\n", client.SearchURL(query))

	books, err := client.Search(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if store := a.openHistory(); store != nil {
		defer store.Close()
		if err := store.AddSearch(query, len(books)); err != nil {
			a.log.WithError(err).Warn("failed to record search")
		}
	}

	if len(books) == 0 {
		fmt.Fprintln(out, "No books found.")
		fmt.Fprintf(out, "Search URL: %s\n", client.SearchURL(query))
		return nil
	}

	fmt.Fprintf(out, "\nFound %d books:\n", len(books))
	printBooks(out, books, summaryLimit)

	path := a.cfg.Downloads.ResultsPath()
	if err := anna.SaveResults(path, books); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nDetailed results saved to: %s\n", path)
	return nil
}

// printBooks prints at most limit books and a count of the rest
func printBooks(w io.Writer, books []*anna.Book, limit int) {
	for i, book := range books {
		if i >= limit {
			break
		}
		fmt.Fprintf(w, "%s %s\n", tui.IndexStyle.Render(fmt.Sprintf("%2d.", i+1)), book)
	}
	if len(books) > limit {
		fmt.Fprintf(w, "    ... and %d more results\n", len(books)-limit)
	}
}
