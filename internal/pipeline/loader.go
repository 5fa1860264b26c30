// Package pipeline implements the per-source loader/parser/filter/
// transformer chain: four concurrent stages joined by byte and record
// rings, one chain per configured playlist URL.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pefti/pefti/internal/httpclient"
	"github.com/pefti/pefti/internal/ring"
	"github.com/pefti/pefti/internal/safeurl"
)

// TransportError wraps an HTTP fetch failure for one source URL.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Loader streams one playlist URL's response body into a byte ring, then
// writes the end-of-stream sentinel on every exit path so the parser
// always terminates, even after a transport error.
type Loader struct {
	Client *http.Client
}

// NewLoader returns a Loader using client, or httpclient.Default() if nil.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = httpclient.Default()
	}
	return &Loader{Client: client}
}

// Load fetches url and streams its body into dst. It does not interpret
// content. dst.WriteSentinel is always called before returning.
func (l *Loader) Load(ctx context.Context, url string, dst *ring.ByteRing) error {
	defer dst.WriteSentinel()

	if !safeurl.IsHTTPOrHTTPS(url) {
		return &TransportError{URL: url, Err: fmt.Errorf("unsupported URL scheme")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &TransportError{URL: url, Err: err}
	}
	resp, err := httpclient.DoWithRetry(ctx, l.Client, req, httpclient.DefaultRetryPolicy)
	if err != nil {
		return &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return &TransportError{URL: url, Err: err}
	}
	return nil
}
