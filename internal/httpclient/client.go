package httpclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
)

const maxRedirects = 10

// NewTransport returns a round tripper that requests gzip encoding and
// decompresses responses transparently
func NewTransport() http.RoundTripper {
	return gzhttp.Transport(http.DefaultTransport)
}

// New creates the HTTP client shared by the listing and download steps
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewTransport(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}
