package anna

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"

	"github.com/billmal071/annas/internal/logger"
)

const (
	fastDownloadPath = "/dyn/api/fast_download.json"

	// maxAPIBody caps how much of an API response is read
	maxAPIBody = 1 << 20

	defaultAPIError = "failed to get download URL"
	unknownLeft     = "unknown"
)

const fastDownloadSchema = `{
  "type": "object",
  "properties": {
    "download_url": {"type": ["string", "null"]},
    "error": {"type": ["string", "null"]},
    "account_fast_download_info": {
      "type": ["object", "null"],
      "properties": {
        "downloads_left": {"type": ["number", "string", "null"]}
      }
    }
  }
}`

var fastDownloadValidator = mustSchema(fastDownloadSchema)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(err)
	}
	return s
}

// APIClient calls the member fast-download API with a secret key
type APIClient struct {
	siteURL   string
	secretKey string
	http      *http.Client
	log       logrus.FieldLogger
}

// NewAPIClient creates a client for the API under siteURL
func NewAPIClient(siteURL, secretKey string, client *http.Client, log logrus.FieldLogger) *APIClient {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = logger.Discard()
	}
	return &APIClient{
		siteURL:   strings.TrimRight(siteURL, "/"),
		secretKey: secretKey,
		http:      client,
		log:       log,
	}
}

// FastDownload exchanges md5Hash for a one-time download URL.
func (c *APIClient) FastDownload(ctx context.Context, md5Hash string) (*FastDownload, error) {
	// endpoint never carries the key, it is safe to put in errors
	endpoint := c.siteURL + fastDownloadPath
	query := url.Values{}
	query.Set("md5", md5Hash)
	query.Set("key", c.secretKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.WithField("md5", md5Hash).Debug("requesting fast download link")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint, stripURL(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", endpoint, stripURL(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if msg := errorMessage(body); msg != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
		}
		return nil, &HTTPStatusError{URL: endpoint, StatusCode: resp.StatusCode}
	}

	parsed, err := decodeFastDownload(endpoint, body)
	if err != nil {
		return nil, err
	}

	if parsed.DownloadURL == nil || *parsed.DownloadURL == "" {
		msg := parsed.Error
		if msg == "" {
			msg = defaultAPIError
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	left := unknownLeft
	if parsed.Account != nil && parsed.Account.DownloadsLeft != "" {
		left = string(parsed.Account.DownloadsLeft)
	}
	return &FastDownload{URL: *parsed.DownloadURL, DownloadsLeft: left}, nil
}

func decodeFastDownload(endpoint string, body []byte) (*FastDownloadResponse, error) {
	if !json.Valid(body) {
		return nil, &ResponseError{URL: endpoint, Reason: "malformed JSON"}
	}

	res, err := fastDownloadValidator.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, &ResponseError{URL: endpoint, Reason: "schema validation", Err: err}
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, &ResponseError{URL: endpoint, Reason: "unexpected shape: " + strings.Join(msgs, "; ")}
	}

	var parsed FastDownloadResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&parsed); err != nil {
		return nil, &ResponseError{URL: endpoint, Reason: "decode", Err: err}
	}
	return &parsed, nil
}

// errorMessage pulls the "error" field out of a JSON body, if there is one.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	return strings.TrimSpace(e.Error)
}

// stripURL drops the request URL (which carries the secret key) from
// transport errors.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
