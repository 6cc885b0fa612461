// Package httpx builds the outbound HTTP clients. All clients share one
// transport so connections are pooled across the page, API and file
// requests. Page and API clients carry an overall timeout; the stream client
// has none and the caller bounds the wait for each read instead.
package httpx

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/billmal071/annas/internal/config"
)

// Clients groups the per-purpose clients that share a connection pool.
type Clients struct {
	Page   *http.Client
	API    *http.Client
	Stream *http.Client
}

// Transport stamps a User-Agent on requests that do not carry one.
type Transport struct {
	Base      http.RoundTripper
	UserAgent string
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}
	if t.UserAgent == "" || req.Header.Get("User-Agent") != "" {
		return t.Base.RoundTrip(req)
	}
	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.UserAgent)
	return t.Base.RoundTrip(r)
}

// New builds the client set for cfg.
func New(cfg config.NetworkConfig) *Clients {
	shared := &Transport{
		Base:      NewBaseTransport(cfg.IPv4Only),
		UserAgent: cfg.UserAgent,
	}
	return &Clients{
		Page:   &http.Client{Transport: shared, Timeout: cfg.PageTimeout},
		API:    &http.Client{Transport: shared, Timeout: cfg.APITimeout},
		// No overall deadline: a large file may take far longer than
		// DownloadTimeout while data keeps arriving.
		Stream: &http.Client{Transport: shared},
	}
}

// NewBaseTransport returns a pooled transport. With ipv4Only set every TCP
// connection is dialed over IPv4.
func NewBaseTransport(ipv4Only bool) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, dialNetwork(ipv4Only, network), addr)
		},
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

func dialNetwork(ipv4Only bool, network string) string {
	if !ipv4Only {
		return network
	}
	switch network {
	case "tcp", "tcp4", "tcp6":
		return "tcp4"
	}
	return network
}
