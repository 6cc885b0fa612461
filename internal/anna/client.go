package anna

import (
	"github.com/sirupsen/logrus"

	"github.com/billmal071/annas/internal/config"
	"github.com/billmal071/annas/internal/httpx"
)

// Client bundles the search scraper and the fast-download API
type Client struct {
	*ScraperClient
	*APIClient
}

// NewClient creates a client for the configured site. The page client backs
// the scraper and the API client backs fast-download calls.
func NewClient(cfg *config.Config, clients *httpx.Clients, log logrus.FieldLogger) (*Client, error) {
	site := cfg.Anna.SiteURL()

	opts := []ScraperOption{WithUserAgent(cfg.Network.UserAgent)}
	if cfg.Network.BrowserFallback {
		opts = append(opts, WithFallback(NewBrowserClient(cfg.Network.UserAgent, log)))
	}

	scraper, err := NewScraperClient(site, clients.Page, log, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		ScraperClient: scraper,
		APIClient:     NewAPIClient(site, cfg.Anna.SecretKey, clients.API, log),
	}, nil
}
