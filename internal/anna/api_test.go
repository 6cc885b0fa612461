package anna

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	var got http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = *r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestFastDownload_Success(t *testing.T) {
	srv, got := apiServer(t, http.StatusOK,
		`{"download_url":"https://files.example/x.pdf","account_fast_download_info":{"downloads_left":42}}`)

	c := NewAPIClient(srv.URL, "s3cret", srv.Client(), nil)
	fd, err := c.FastDownload(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, "https://files.example/x.pdf", fd.URL)
	assert.Equal(t, "42", fd.DownloadsLeft)
	assert.Equal(t, fastDownloadPath, got.URL.Path)
	assert.Equal(t, "abc123", got.URL.Query().Get("md5"))
	assert.Equal(t, "s3cret", got.URL.Query().Get("key"))
}

func TestFastDownload_DownloadsLeftAsString(t *testing.T) {
	srv, _ := apiServer(t, http.StatusOK,
		`{"download_url":"https://files.example/x.pdf","account_fast_download_info":{"downloads_left":"7"}}`)

	fd, err := NewAPIClient(srv.URL, "k", srv.Client(), nil).FastDownload(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "7", fd.DownloadsLeft)
}

func TestFastDownload_DownloadsLeftUnknown(t *testing.T) {
	srv, _ := apiServer(t, http.StatusOK, `{"download_url":"https://files.example/x.pdf"}`)

	fd, err := NewAPIClient(srv.URL, "k", srv.Client(), nil).FastDownload(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "unknown", fd.DownloadsLeft)
}

func TestFastDownload_NullURLSurfacesAPIMessage(t *testing.T) {
	srv, _ := apiServer(t, http.StatusOK, `{"download_url": null, "error": "Daily limit reached"}`)

	_, err := NewAPIClient(srv.URL, "k", srv.Client(), nil).FastDownload(context.Background(), "abc")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Daily limit reached", apiErr.Message)
	assert.Contains(t, err.Error(), "Daily limit reached")
}

func TestFastDownload_MissingURLUsesDefaultMessage(t *testing.T) {
	srv, _ := apiServer(t, http.StatusOK, `{}`)

	_, err := NewAPIClient(srv.URL, "k", srv.Client(), nil).FastDownload(context.Background(), "abc")
	require.Error(t, err)
	assert.EqualError(t, err, "failed to get download URL")
}

func TestFastDownload_ErrorStatusWithMessage(t *testing.T) {
	srv, _ := apiServer(t, http.StatusUnauthorized, `{"download_url": null, "error": "Invalid secret key"}`)

	_, err := NewAPIClient(srv.URL, "bad", srv.Client(), nil).FastDownload(context.Background(), "abc")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid secret key", apiErr.Message)
}

func TestFastDownload_ErrorStatusWithoutJSON(t *testing.T) {
	srv, _ := apiServer(t, http.StatusBadGateway, `<html>bad gateway</html>`)

	_, err := NewAPIClient(srv.URL, "k", srv.Client(), nil).FastDownload(context.Background(), "abc")

	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.NotContains(t, statusErr.URL, "key=")
}

func TestFastDownload_MalformedJSON(t *testing.T) {
	srv, _ := apiServer(t, http.StatusOK, `{"download_url": `)

	_, err := NewAPIClient(srv.URL, "k", srv.Client(), nil).FastDownload(context.Background(), "abc")

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, "malformed JSON", respErr.Reason)
}

func TestFastDownload_SchemaMismatch(t *testing.T) {
	srv, _ := apiServer(t, http.StatusOK, `{"download_url": 12}`)

	_, err := NewAPIClient(srv.URL, "k", srv.Client(), nil).FastDownload(context.Background(), "abc")

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Contains(t, respErr.Reason, "download_url")
}

func TestFastDownload_TransportErrorHidesKey(t *testing.T) {
	srv, _ := apiServer(t, http.StatusOK, `{}`)
	srv.Close()

	_, err := NewAPIClient(srv.URL, "topsecret", srv.Client(), nil).FastDownload(context.Background(), "abc")
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "topsecret"))
	assert.Contains(t, err.Error(), fastDownloadPath)
}
