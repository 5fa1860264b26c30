package httpclient

import (
	"net/http"
	"time"
)

// Default returns an HTTP client with timeouts so that a dead playlist or
// EPG source doesn't hang a pipeline forever. Its transport transparently
// decodes brotli-compressed bodies (see brotli.go) since several IPTV
// panels serve M3U/XMLTV with Content-Encoding: br.
func Default() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: brotliTransport(&http.Transport{
			ResponseHeaderTimeout: 15 * time.Second,
			ExpectContinueTimeout: 5 * time.Second,
			IdleConnTimeout:       30 * time.Second,
		}),
	}
}
