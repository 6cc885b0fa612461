package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/billmal071/annas/internal/config"
	"github.com/billmal071/annas/internal/db"
	"github.com/billmal071/annas/internal/tui"
)

const historyLimit = 20

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history [searches|downloads]",
		Short: "Show search and download history",
		Long: `Show the local journal of searches and downloads.

Examples:
  annas history              List recent searches and downloads
  annas history searches     List recent searches only
  annas history downloads    List recent downloads only`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"searches", "downloads"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.History.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "History is disabled (history.enabled = false).")
				return nil
			}

			store, err := db.Open(config.GetDBPath())
			if err != nil {
				return fmt.Errorf("failed to open history: %w", err)
			}
			defer store.Close()

			which := ""
			if len(args) == 1 {
				which = args[0]
			}

			out := cmd.OutOrStdout()
			if which == "" || which == "searches" {
				if err := showSearches(out, store); err != nil {
					return err
				}
			}
			if which == "" {
				fmt.Fprintln(out)
			}
			if which == "" || which == "downloads" {
				if err := showDownloads(out, store); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func showSearches(w io.Writer, store *db.Store) error {
	history, err := store.RecentSearches(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to get search history: %w", err)
	}

	if len(history) == 0 {
		fmt.Fprintln(w, "No search history.")
		return nil
	}

	fmt.Fprintln(w, tui.TitleStyle.Render(fmt.Sprintf("Recent Searches (%d):", len(history))))
	for i, h := range history {
		fmt.Fprintf(w, "  %d. \"%s\" (%d results)\n", i+1, h.Query, h.ResultCount)
		fmt.Fprintf(w, "     %s\n", tui.DimStyle.Render(h.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	return nil
}

func showDownloads(w io.Writer, store *db.Store) error {
	downloads, err := store.RecentDownloads("", historyLimit)
	if err != nil {
		return fmt.Errorf("failed to get download history: %w", err)
	}

	if len(downloads) == 0 {
		fmt.Fprintln(w, "No download history.")
		return nil
	}

	fmt.Fprintln(w, tui.TitleStyle.Render(fmt.Sprintf("Recent Downloads (%d):", len(downloads))))
	for i, d := range downloads {
		status := tui.SuccessStyle.Render(string(d.Status))
		if d.Status == db.StatusFailed {
			status = tui.ErrorStyle.Render(string(d.Status))
		}
		fmt.Fprintf(w, "  %d. %s [%s] %s\n", i+1, d.Filename, status, d.ContentHash)

		detail := tui.FormatSize(d.Bytes)
		if d.Path != "" {
			detail = d.Path + ", " + detail
		}
		if d.Error != "" {
			detail = d.Error
		}
		fmt.Fprintf(w, "     %s\n", tui.DimStyle.Render(d.CreatedAt.Local().Format("2006-01-02 15:04")+"  "+detail))
	}
	return nil
}
