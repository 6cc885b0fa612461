package cli

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billmal071/annas/internal/anna"
	"github.com/billmal071/annas/internal/downloader"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// testEnv points config at a temp home and at siteURL, returning the
// download directory.
func testEnv(t *testing.T, siteURL string) string {
	t.Helper()
	home := t.TempDir()
	dl := filepath.Join(home, "books")
	t.Setenv("HOME", home)
	t.Setenv("ANNAS_DOWNLOAD_PATH", dl)
	t.Setenv("ANNAS_ANNA_BASE_URL", siteURL)
	t.Setenv("ANNAS_SECRET_KEY", "test-key")
	t.Setenv("ANNAS_LOG_LEVEL", "error")
	return dl
}

func resultsPage(n int) string {
	var b strings.Builder
	b.WriteString("<html><body><main>")
	for i := 0; i < n; i++ {
		hash := fmt.Sprintf("%032x", i+1)
		fmt.Fprintf(&b, `<div><a href="/md5/%s">Book %d</a><div><span>English, EPUB, Book, %d.0MB</span></div></div>`, hash, i+1, i+1)
	}
	b.WriteString("</main></body></html>")
	return b.String()
}

func searchServer(t *testing.T, page string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRoot_NoArgsPrintsHelp(t *testing.T) {
	testEnv(t, "https://annas-archive.org")

	out, err := runCLI(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "search")
	assert.Contains(t, out, "download")
}

func TestSearch_PrintsSummaryAndSavesResults(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "anna", "testdata", "search.html"))
	require.NoError(t, err)
	srv := searchServer(t, string(raw))
	dl := testEnv(t, srv.URL)

	out, err := runCLI(t, "search", "fluent", "python")
	require.NoError(t, err)

	assert.Contains(t, out, "Searching for: fluent python")
	assert.Contains(t, out, "Found 3 books:")
	assert.Contains(t, out, "Fluent Python (PDF, 9.6MB) - 0a1b2c3d...")
	assert.NotContains(t, out, "more results")

	books, err := anna.LoadResults(filepath.Join(dl, "search_results.json"))
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "0a1b2c3d4e5f60718293a4b5c6d7e8f9", books[0].ContentHash)

	history, err := runCLI(t, "history", "searches")
	require.NoError(t, err)
	assert.Contains(t, history, `"fluent python" (3 results)`)
}

func TestSearch_TruncatesSummaryAfterTen(t *testing.T) {
	srv := searchServer(t, resultsPage(12))
	dl := testEnv(t, srv.URL)

	out, err := runCLI(t, "search", "books")
	require.NoError(t, err)

	assert.Contains(t, out, "Book 10 (EPUB, 10.0MB)")
	assert.NotContains(t, out, "Book 11 (")
	assert.Contains(t, out, "... and 2 more results")

	books, err := anna.LoadResults(filepath.Join(dl, "search_results.json"))
	require.NoError(t, err)
	assert.Len(t, books, 12)
}

func TestSearch_NoResults(t *testing.T) {
	srv := searchServer(t, `<html><body><p>nothing</p></body></html>`)
	dl := testEnv(t, srv.URL)

	out, err := runCLI(t, "search", "zzz")
	require.NoError(t, err)

	assert.Contains(t, out, "No books found.")
	assert.Contains(t, out, "Search URL: "+srv.URL+"/search?q=zzz")
	assert.NoFileExists(t, filepath.Join(dl, "search_results.json"))
}

func TestSearch_RequiresQuery(t *testing.T) {
	testEnv(t, "https://annas-archive.org")

	_, err := runCLI(t, "search")
	assert.Error(t, err)
}

type fileServer struct {
	srv      *httptest.Server
	apiCalls int32
	payload  []byte
	apiBody  string
}

func newFileServer(t *testing.T, payload []byte, apiBody func(base string) string) *fileServer {
	t.Helper()
	fs := &fileServer{payload: payload}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/dyn/api/fast_download.json":
			atomic.AddInt32(&fs.apiCalls, 1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(apiBody(fs.srv.URL)))
		case "/files/book":
			w.Header().Set("Content-Length", strconv.Itoa(len(fs.payload)))
			_, _ = w.Write(fs.payload)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(fs.srv.Close)
	return fs
}

func TestDownload_StreamsAndVerifies(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 1024)
	hash := fmt.Sprintf("%x", md5.Sum(payload))
	fs := newFileServer(t, payload, func(base string) string {
		return fmt.Sprintf(`{"download_url":"%s/files/book?token=1","account_fast_download_info":{"downloads_left":5}}`, base)
	})
	dl := testEnv(t, fs.srv.URL)

	out, err := runCLI(t, "download", hash, "book.pdf")
	require.NoError(t, err)

	assert.Contains(t, out, "Fetching download URL...")
	assert.Contains(t, out, "Downloads remaining: 5")
	assert.Contains(t, out, "Successfully downloaded: "+filepath.Join(dl, "book.pdf"))
	assert.Contains(t, out, "Checksum verified")

	data, err := os.ReadFile(filepath.Join(dl, "book.pdf"))
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	history, err := runCLI(t, "history", "downloads")
	require.NoError(t, err)
	assert.Contains(t, history, "book.pdf")
	assert.Contains(t, history, "completed")
}

func TestDownload_InvalidFilenameMakesNoRequest(t *testing.T) {
	fs := newFileServer(t, nil, func(string) string { return `{}` })
	testEnv(t, fs.srv.URL)

	_, err := runCLI(t, "download", "abc", "book.exe")
	assert.ErrorIs(t, err, downloader.ErrInvalidFilename)
	assert.Zero(t, atomic.LoadInt32(&fs.apiCalls))
}

func TestDownload_APIRefusal(t *testing.T) {
	fs := newFileServer(t, nil, func(string) string {
		return `{"download_url": null, "error": "Daily limit reached"}`
	})
	testEnv(t, fs.srv.URL)

	_, err := runCLI(t, "download", "abc", "book.epub")
	require.Error(t, err)
	assert.Equal(t, "Daily limit reached", err.Error())

	history, err := runCLI(t, "history", "downloads")
	require.NoError(t, err)
	assert.Contains(t, history, "failed")
	assert.Contains(t, history, "Daily limit reached")
}

func TestDownload_RequiresTwoArgs(t *testing.T) {
	testEnv(t, "https://annas-archive.org")

	_, err := runCLI(t, "download", "abc")
	assert.Error(t, err)
}

func TestMCP_NotImplemented(t *testing.T) {
	testEnv(t, "https://annas-archive.org")

	out, err := runCLI(t, "mcp")
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.Contains(t, out, "MCP server mode not implemented in this version")
}

func TestPlaceholders_IgnoreBrokenConfig(t *testing.T) {
	testEnv(t, "https://annas-archive.org")
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("anna: [unterminated\n"), 0644))

	out, err := runCLI(t, "--config", cfgFile, "mcp")
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.Contains(t, out, "MCP server mode not implemented in this version")

	out, err = runCLI(t, "--config", cfgFile, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "annas version "+Version)

	_, err = runCLI(t, "--config", cfgFile, "search", "x")
	assert.ErrorContains(t, err, "failed to load config")
}

func TestVersion(t *testing.T) {
	testEnv(t, "https://annas-archive.org")

	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("annas version %s (%s)\n", Version, Commit), out)
}

func TestConfig_SetGetPath(t *testing.T) {
	testEnv(t, "https://annas-archive.org")
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("anna:\n  base_url: annas-archive.org\n"), 0644))

	out, err := runCLI(t, "--config", cfgFile, "config", "set", "downloads.verify_checksum", "false")
	require.NoError(t, err)
	assert.Contains(t, out, "Set downloads.verify_checksum = false")
	assert.Contains(t, out, "Config saved to: "+cfgFile)

	out, err = runCLI(t, "--config", cfgFile, "config", "get", "downloads.verify_checksum")
	require.NoError(t, err)
	assert.Contains(t, out, "downloads.verify_checksum = false")

	out, err = runCLI(t, "--config", cfgFile, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, "Config file: "+cfgFile)

	_, err = runCLI(t, "--config", cfgFile, "config", "get", "no.such.key")
	assert.Error(t, err)
}

func TestHistory_Disabled(t *testing.T) {
	testEnv(t, "https://annas-archive.org")
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("history:\n  enabled: false\n"), 0644))

	out, err := runCLI(t, "--config", cfgFile, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "History is disabled")
}

func TestHistory_RejectsUnknownSection(t *testing.T) {
	testEnv(t, "https://annas-archive.org")

	_, err := runCLI(t, "history", "bookmarks")
	assert.Error(t, err)
}

func TestSuggestFilename(t *testing.T) {
	assert.Equal(t, "Fluent-Python.pdf", suggestFilename(&anna.Book{Title: "Fluent Python!", Format: "PDF"}))
	assert.Equal(t, "abc.epub", suggestFilename(&anna.Book{Title: "???", ContentHash: "abc", Format: "EPUB"}))
	assert.Empty(t, suggestFilename(&anna.Book{Title: "No format"}))
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, "short", truncateTitle("short", 40))

	title := truncateTitle(strings.Repeat("é", 50), 40)
	assert.True(t, utf8.ValidString(title))
	assert.Equal(t, strings.Repeat("é", 37)+"...", title)

	name := suggestFilename(&anna.Book{Title: strings.Repeat("日本", 40), ContentHash: "abc", Format: "PDF"})
	assert.Equal(t, "abc.pdf", name)
}

func TestErrorf(t *testing.T) {
	var buf bytes.Buffer
	Errorf(&buf, "%v", ErrNotImplemented)
	assert.Equal(t, "Error: not implemented\n", buf.String())
}
