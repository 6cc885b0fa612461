package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/billmal071/annas/internal/anna"
	"github.com/billmal071/annas/internal/db"
	"github.com/billmal071/annas/internal/downloader"
	"github.com/billmal071/annas/internal/tui"
)

func newDownloadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "download <md5-hash> <filename>",
		Short: "Download a book by content hash",
		Long: `Download a book through the fast-download API using its content hash.

The hash can be taken from search results. The file is saved under the
configured download directory with the given filename, which must end in
.pdf, .epub, .mobi, .djvu, .txt, .doc or .docx.

Examples:
  annas download 0a1b2c3d4e5f60718293a4b5c6d7e8f9 fluent-python.pdf`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: a.completeDownloadArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDownload(cmd, args[0], args[1])
		},
	}
}

func (a *app) runDownload(cmd *cobra.Command, hash, filename string) error {
	out := cmd.OutOrStdout()
	hash = strings.ToLower(strings.TrimSpace(hash))

	if err := downloader.ValidateFilename(filename); err != nil {
		return err
	}

	client, err := anna.NewClient(a.cfg, a.clients, a.log)
	if err != nil {
		return err
	}

	bar := tui.NewProgressBar(out, "Downloading")
	resolver := downloader.NewResolver(client, a.clients.Stream, a.cfg.Downloads.Path,
		downloader.WithProgress(bar),
		downloader.WithChecksum(a.cfg.Downloads.VerifyChecksum),
		downloader.WithIdleTimeout(a.cfg.Network.DownloadTimeout),
		downloader.WithLogger(a.log),
	)

	fmt.Fprintln(out, "Fetching download URL...")
	fmt.Fprintf(out, "Downloading to: %s\n", filepath.Join(a.cfg.Downloads.Path, filename))

	res, err := resolver.Resolve(cmd.Context(), hash, filename)
	bar.Finish()
	a.recordDownload(hash, filename, res, err)
	if err != nil {
		var apiErr *anna.APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return fmt.Errorf("download failed: %w", err)
	}

	fmt.Fprintf(out, "Downloads remaining: %s\n", res.DownloadsLeft)
	Successf(out, "Successfully downloaded: %s (%s)", res.Path, tui.FormatSize(res.Bytes))

	if res.Checked {
		if res.ChecksumOK {
			Successf(out, "Checksum verified")
		} else {
			fmt.Fprintln(out, tui.WarningStyle.Render("Warning: checksum does not match the content hash"))
		}
	}
	return nil
}

func (a *app) recordDownload(hash, filename string, res *downloader.Result, dlErr error) {
	store := a.openHistory()
	if store == nil {
		return
	}
	defer store.Close()

	entry := &db.Download{
		ContentHash: hash,
		Filename:    filename,
		Status:      db.StatusCompleted,
	}
	if res != nil {
		entry.Path = res.Path
		entry.Bytes = res.Bytes
	}
	if dlErr != nil {
		entry.Status = db.StatusFailed
		entry.Error = dlErr.Error()
	}

	if err := store.RecordDownload(entry); err != nil {
		a.log.WithError(err).Warn("failed to record download")
	}
}
