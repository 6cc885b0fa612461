package anna

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Book is one search hit scraped from a results page
type Book struct {
	Title       string `json:"title"`
	ContentHash string `json:"contentHash"`
	Language    string `json:"language"`
	Format      string `json:"format"`
	Size        string `json:"size"`
	Publisher   string `json:"publisher"`
	Authors     string `json:"authors"`
	DetailURL   string `json:"detailUrl"`
}

func (b *Book) String() string {
	hash := b.ContentHash
	if len(hash) > 8 {
		hash = hash[:8]
	}
	return fmt.Sprintf("%s (%s, %s) - %s...", b.Title, b.Format, b.Size, hash)
}

// FastDownloadResponse is the body of the fast_download.json endpoint
type FastDownloadResponse struct {
	DownloadURL *string      `json:"download_url"`
	Error       string       `json:"error"`
	Account     *AccountInfo `json:"account_fast_download_info"`
}

// AccountInfo carries the member's remaining fast-download quota
type AccountInfo struct {
	DownloadsLeft DownloadsLeft `json:"downloads_left"`
}

// DownloadsLeft is reported either as a number or as a string.
type DownloadsLeft string

func (d *DownloadsLeft) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		return nil
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*d = DownloadsLeft(str)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*d = DownloadsLeft(n.String())
	}
	return nil
}

// FastDownload is a resolved one-time download link
type FastDownload struct {
	URL           string
	DownloadsLeft string
}

// Searcher finds books matching a query
type Searcher interface {
	Search(ctx context.Context, query string) ([]*Book, error)
}

// FastDownloader exchanges a content hash for a direct download link
type FastDownloader interface {
	FastDownload(ctx context.Context, md5Hash string) (*FastDownload, error)
}
