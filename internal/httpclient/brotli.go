package httpclient

import (
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
)

// brotliTransport wraps rt so that responses with Content-Encoding: br are
// transparently decompressed. net/http's built-in transparent decompression
// only understands gzip; providers that brotli-compress their playlist or
// EPG payloads would otherwise hand the loader a compressed byte stream.
func brotliTransport(rt http.RoundTripper) http.RoundTripper {
	return &brotliRoundTripper{next: rt}
}

type brotliRoundTripper struct {
	next http.RoundTripper
}

func (t *brotliRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp == nil {
		return resp, err
	}
	if resp.Header.Get("Content-Encoding") != "br" {
		return resp, nil
	}
	resp.Body = &brotliReadCloser{br: brotli.NewReader(resp.Body), underlying: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	return resp, nil
}

type brotliReadCloser struct {
	br         io.Reader
	underlying io.ReadCloser
}

func (b *brotliReadCloser) Read(p []byte) (int, error) { return b.br.Read(p) }
func (b *brotliReadCloser) Close() error                { return b.underlying.Close() }
