package anna

import (
	"errors"
	"fmt"
)

var (
	// ErrCloudflareBlocked indicates a Cloudflare challenge page was served
	ErrCloudflareBlocked = errors.New("cloudflare challenge detected")
)

// HTTPStatusError reports a non-2xx response.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d", e.URL, e.StatusCode)
}

// ResponseError reports a response body that could not be understood,
// as opposed to a request that failed in transit.
type ResponseError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid response from %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid response from %s: %s", e.URL, e.Reason)
}

func (e *ResponseError) Unwrap() error { return e.Err }

// APIError is a refusal reported by the fast-download API itself.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}
