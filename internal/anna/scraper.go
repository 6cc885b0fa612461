package anna

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"

	"github.com/billmal071/annas/internal/dom"
	"github.com/billmal071/annas/internal/logger"
)

// challengeMarkers appear in Cloudflare interstitial pages
var challengeMarkers = []string{
	"cf-browser-verification",
	"Just a moment...",
	"_cf_chl",
}

// HTMLFetcher renders a page and returns its final markup
type HTMLFetcher interface {
	FetchHTML(ctx context.Context, pageURL string) (string, error)
}

// ScraperClient scrapes the search results page
type ScraperClient struct {
	siteURL   string
	userAgent string
	http      *http.Client
	extractor *Extractor
	fallback  HTMLFetcher
	log       logrus.FieldLogger
}

// ScraperOption configures a ScraperClient
type ScraperOption func(*ScraperClient)

// WithFallback sets the fetcher used when a Cloudflare challenge is served
func WithFallback(f HTMLFetcher) ScraperOption {
	return func(c *ScraperClient) { c.fallback = f }
}

// WithUserAgent sets the User-Agent sent by the collector
func WithUserAgent(ua string) ScraperOption {
	return func(c *ScraperClient) { c.userAgent = ua }
}

// NewScraperClient creates a scraper for siteURL using the given page client
func NewScraperClient(siteURL string, client *http.Client, log logrus.FieldLogger, opts ...ScraperOption) (*ScraperClient, error) {
	if log == nil {
		log = logger.Discard()
	}
	siteURL = strings.TrimRight(siteURL, "/")

	extractor, err := NewExtractor(siteURL, log)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}

	c := &ScraperClient{
		siteURL:   siteURL,
		http:      client,
		extractor: extractor,
		log:       log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SearchURL returns the results page URL for query
func (c *ScraperClient) SearchURL(query string) string {
	return fmt.Sprintf("%s/search?q=%s", c.siteURL, url.QueryEscape(query))
}

// Search fetches the results page for query and extracts its books.
func (c *ScraperClient) Search(ctx context.Context, query string) ([]*Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	searchURL := c.SearchURL(query)
	var (
		status     int
		challenged bool
		root       dom.Node
	)

	collector := colly.NewCollector()
	if c.userAgent != "" {
		collector.UserAgent = c.userAgent
	}
	collector.SetClient(c.http)
	// Status codes are judged below, not by colly.
	collector.ParseHTTPErrorResponse = true

	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		challenged = isChallenge(r.StatusCode, r.Body)
	})

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		if root == nil {
			root = dom.FromSelection(e.DOM)
		}
	})

	c.log.WithField("url", searchURL).Debug("fetching search page")

	if err := collector.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", searchURL, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if challenged {
		return c.searchWithFallback(ctx, searchURL)
	}
	if status < 200 || status > 299 {
		return nil, &HTTPStatusError{URL: searchURL, StatusCode: status}
	}
	if root == nil {
		c.log.WithField("url", searchURL).Warn("search page has no HTML document")
		return []*Book{}, nil
	}

	return c.extractor.Extract(root), nil
}

func (c *ScraperClient) searchWithFallback(ctx context.Context, searchURL string) ([]*Book, error) {
	if c.fallback == nil {
		return nil, ErrCloudflareBlocked
	}

	c.log.WithField("url", searchURL).Warn("cloudflare challenge detected, retrying with headless browser")

	markup, err := c.fallback.FetchHTML(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("browser fallback: %w", err)
	}

	root, err := dom.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, &ResponseError{URL: searchURL, Reason: "unparseable HTML", Err: err}
	}
	return c.extractor.Extract(root), nil
}

func isChallenge(status int, body []byte) bool {
	if status == http.StatusForbidden || status == http.StatusServiceUnavailable {
		return true
	}
	text := string(body)
	for _, marker := range challengeMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
