package anna

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/billmal071/annas/internal/dom"
	"github.com/billmal071/annas/internal/logger"
)

const (
	itemLinkPrefix = "/md5/"

	// secondary scan bounds
	divScanLevels = 3
	divScanLimit  = 10
)

var (
	md5PathRegex = regexp.MustCompile(`^/md5/([0-9a-f]+)`)
	sizeRegex    = regexp.MustCompile(`(?i)\d+(\.\d+)?\s*(MB|KB|GB)`)
	formatRegex  = regexp.MustCompile(`(?i)\b(PDF|EPUB|MOBI|TXT)\b`)

	// metaKeywords mark a span as the language/format/size line
	metaKeywords = []string{"PDF", "EPUB", "MOBI", "MB", "KB", "GB"}

	errDetached = errors.New("anchor has no parent element")
)

// Extractor turns a search results document into book records.
type Extractor struct {
	base *url.URL
	log  logrus.FieldLogger
}

// NewExtractor returns an extractor resolving detail links against baseURL.
func NewExtractor(baseURL string, log logrus.FieldLogger) (*Extractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host required", baseURL)
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Extractor{base: base, log: log}, nil
}

// Extract returns one record per distinct content hash, in the order the
// hashes first appear in the document. Anchors that cannot be extracted are
// logged and skipped.
func (x *Extractor) Extract(root dom.Node) []*Book {
	books := make([]*Book, 0)
	seen := make(map[string]bool)

	for _, a := range textAnchors(root) {
		href, _ := a.Attr("href")
		m := md5PathRegex.FindStringSubmatch(href)
		if m == nil {
			continue
		}
		hash := m[1]
		if seen[hash] {
			continue
		}
		seen[hash] = true

		book, err := x.extractOne(a, hash, href)
		if err != nil {
			x.log.WithFields(logrus.Fields{
				"href":  href,
				"error": err,
			}).Warn("skipping search result")
			continue
		}
		books = append(books, book)
	}

	x.log.WithField("count", len(books)).Debug("extracted search results")
	return books
}

// textAnchors finds item links carrying visible text. Cover-image links to
// the same item have no text and are dropped here.
func textAnchors(root dom.Node) []dom.Node {
	var anchors []dom.Node
	dom.Walk(root, func(n dom.Node) bool {
		if n.Tag() != "a" {
			return true
		}
		href, ok := n.Attr("href")
		if ok && strings.HasPrefix(href, itemLinkPrefix) && strings.TrimSpace(n.Text()) != "" {
			anchors = append(anchors, n)
		}
		return true
	})
	return anchors
}

func (x *Extractor) extractOne(a dom.Node, hash, href string) (book *Book, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed result markup: %v", r)
		}
	}()

	parent := a.Parent()
	if parent == nil {
		return nil, errDetached
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("bad item link: %w", err)
	}

	book = &Book{
		Title:       strings.TrimSpace(a.Text()),
		ContentHash: hash,
		DetailURL:   x.base.ResolveReference(ref).String(),
	}

	if meta := findMetaText(parent); meta != "" {
		book.Language, book.Format, book.Size = parseMetaText(meta)
	}
	if book.Format == "" || book.Size == "" {
		book.Format, book.Size = scanBlocks(parent, book.Format, book.Size)
	}
	return book, nil
}

// findMetaText climbs from start through its ancestors and returns the text
// of the first span mentioning a format or size unit.
func findMetaText(start dom.Node) string {
	levels := climb(start)
	for _, level := range levels {
		for _, span := range dom.FindAll(level, "span", 0) {
			text := strings.TrimSpace(span.Text())
			if hasMetaKeyword(text) {
				return text
			}
		}
	}
	return ""
}

// climb returns start followed by its ancestors, nearest first.
func climb(start dom.Node) []dom.Node {
	return append([]dom.Node{start}, dom.Ancestors(start)...)
}

func hasMetaKeyword(text string) bool {
	upper := strings.ToUpper(text)
	for _, kw := range metaKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// parseMetaText splits "language, format, category, size, ..." by position.
// The third segment is a classification and is ignored.
func parseMetaText(meta string) (language, format, size string) {
	parts := strings.Split(meta, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) > 0 {
		language = parts[0]
	}
	if len(parts) > 1 {
		format = parts[1]
	}
	if len(parts) > 3 {
		size = parts[3]
	}
	return language, format, size
}

// scanBlocks looks through nearby divs for a size or format token, filling
// only the fields that are still empty. The first match for a field wins.
func scanBlocks(start dom.Node, format, size string) (string, string) {
	levels := climb(start)
	if len(levels) > divScanLevels {
		levels = levels[:divScanLevels]
	}
	for _, level := range levels {
		for _, div := range dom.FindAll(level, "div", divScanLimit) {
			if format != "" && size != "" {
				return format, size
			}
			text := strings.TrimSpace(div.Text())
			if size == "" {
				size = sizeRegex.FindString(text)
			}
			if format == "" {
				format = strings.ToUpper(formatRegex.FindString(text))
			}
		}
	}
	return format, size
}
