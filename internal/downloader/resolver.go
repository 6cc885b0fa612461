package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/billmal071/annas/internal/anna"
	"github.com/billmal071/annas/internal/logger"
)

// ReadBufferSize is the size of each read from the download stream
const ReadBufferSize = 8 * 1024

// ErrInvalidFilename is returned for filenames without a supported extension
var ErrInvalidFilename = errors.New("invalid filename: must end with a supported book extension")

// ErrStalled is returned when the download stream delivers no data within
// the idle timeout
var ErrStalled = errors.New("download stalled")

// AllowedExtensions lists the file extensions a download may be saved as
var AllowedExtensions = []string{".pdf", ".epub", ".mobi", ".djvu", ".txt", ".doc", ".docx"}

// Progress receives the cumulative byte count after each write. It is only
// called when the total size is known.
type Progress interface {
	Update(written, total int64)
}

// Result describes a completed download
type Result struct {
	Path          string
	Bytes         int64
	DownloadsLeft string
	// Checked is set when the file's MD5 was compared with the content hash
	Checked    bool
	ChecksumOK bool
}

// Resolver turns a content hash into a file on disk
type Resolver struct {
	api      anna.FastDownloader
	stream   *http.Client
	dir      string
	verify   bool
	idle     time.Duration
	progress Progress
	log      logrus.FieldLogger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithProgress sets the sink for byte counts
func WithProgress(p Progress) Option {
	return func(r *Resolver) { r.progress = p }
}

// WithChecksum enables MD5 verification after the stream completes
func WithChecksum(enabled bool) Option {
	return func(r *Resolver) { r.verify = enabled }
}

// WithIdleTimeout bounds how long the stream may go without delivering data,
// from the request until the response headers and between reads. Zero
// disables the limit.
func WithIdleTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.idle = d }
}

// WithLogger sets the diagnostic logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Resolver) { r.log = log }
}

// NewResolver creates a resolver saving files into dir
func NewResolver(api anna.FastDownloader, stream *http.Client, dir string, opts ...Option) *Resolver {
	if stream == nil {
		stream = http.DefaultClient
	}
	r := &Resolver{
		api:    api,
		stream: stream,
		dir:    dir,
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ValidateFilename checks that filename is a bare name with a supported
// extension.
func ValidateFilename(filename string) error {
	if filename == "" || filename != filepath.Base(filename) || strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
}

// Resolve asks the API for a download link for contentHash and streams it
// to <dir>/<filename>. A partially written file is left in place on error.
func (r *Resolver) Resolve(ctx context.Context, contentHash, filename string) (*Result, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}

	link, err := r.api.FastDownload(ctx, contentHash)
	if err != nil {
		return nil, err
	}

	log := r.log.WithFields(logrus.Fields{
		"md5":  contentHash,
		"file": filename,
	})
	log.WithField("downloads_left", link.DownloadsLeft).Debug("got download link")

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	dest := filepath.Join(r.dir, filename)

	written, err := r.streamTo(ctx, link.URL, dest)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Path:          dest,
		Bytes:         written,
		DownloadsLeft: link.DownloadsLeft,
	}

	if r.verify && isMD5(contentHash) {
		res.Checked = true
		if err := VerifyChecksum(dest, contentHash); err != nil {
			log.WithError(err).Warn("downloaded file failed checksum verification")
		} else {
			res.ChecksumOK = true
		}
	}

	log.WithField("bytes", written).Info("download complete")
	return res, nil
}

func (r *Resolver) streamTo(ctx context.Context, rawURL, dest string) (int64, error) {
	safeURL := redact(rawURL)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	watchdog := newIdleTimer(r.idle, cancel)
	defer watchdog.stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request for %s: %w", safeURL, err)
	}

	resp, err := r.stream.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", safeURL, watchdog.cause(unwrapURL(err)))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &anna.HTTPStatusError{URL: safeURL, StatusCode: resp.StatusCode}
	}

	file, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}
	defer file.Close()

	total := resp.ContentLength
	var written int64
	buf := make([]byte, ReadBufferSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			watchdog.reset()
			if _, err := file.Write(buf[:n]); err != nil {
				return written, fmt.Errorf("write %s: %w", dest, err)
			}
			written += int64(n)
			if total > 0 && r.progress != nil {
				r.progress.Update(written, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return written, fmt.Errorf("read %s: %w", safeURL, watchdog.cause(unwrapURL(readErr)))
		}
	}

	if err := file.Close(); err != nil {
		return written, fmt.Errorf("close %s: %w", dest, err)
	}
	return written, nil
}

// idleTimer cancels a request once it has gone a full period without
// progress. A zero period never fires.
type idleTimer struct {
	period time.Duration
	timer  *time.Timer
	fired  atomic.Bool
}

func newIdleTimer(period time.Duration, cancel context.CancelFunc) *idleTimer {
	t := &idleTimer{period: period}
	if period > 0 {
		t.timer = time.AfterFunc(period, func() {
			t.fired.Store(true)
			cancel()
		})
	}
	return t
}

func (t *idleTimer) reset() {
	if t.timer != nil && !t.fired.Load() {
		t.timer.Reset(t.period)
	}
}

func (t *idleTimer) stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

// cause replaces the cancellation error with ErrStalled when the timer fired.
func (t *idleTimer) cause(err error) error {
	if t.fired.Load() {
		return fmt.Errorf("%w: no data for %s", ErrStalled, t.period)
	}
	return err
}

// redact drops the query string, which holds one-time tokens.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "download URL"
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String()
}

func unwrapURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
