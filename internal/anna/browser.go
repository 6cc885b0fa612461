package anna

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/billmal071/annas/internal/logger"
)

const (
	browserTimeout = 60 * time.Second
	// challengeSettle is how long the challenge script gets to redirect
	challengeSettle = 5 * time.Second
)

// BrowserClient renders pages in headless Chrome. It is the fallback for
// pages behind a Cloudflare challenge.
type BrowserClient struct {
	userAgent string
	timeout   time.Duration
	log       logrus.FieldLogger
}

// NewBrowserClient creates a browser client sending userAgent
func NewBrowserClient(userAgent string, log logrus.FieldLogger) *BrowserClient {
	if log == nil {
		log = logger.Discard()
	}
	return &BrowserClient{
		userAgent: userAgent,
		timeout:   browserTimeout,
		log:       log,
	}
}

// FetchHTML navigates to pageURL and returns the rendered document.
func (c *BrowserClient) FetchHTML(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
	)
	if c.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.userAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(c.log.Debugf),
		chromedp.WithErrorf(c.log.Debugf),
	)
	defer browserCancel()

	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, c.timeout)
	defer timeoutCancel()

	c.log.WithField("url", pageURL).Debug("rendering page in headless browser")

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(challengeSettle),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}
	return html, nil
}
