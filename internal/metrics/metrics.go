// Package metrics exposes pipeline-stage counters through an optional
// Prometheus /metrics endpoint, the same opt-in HTTP-mux pattern
// cmd/plex-tuner uses for its discovery endpoints.
package metrics

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts channels as they move through the pipeline and EPG
// elements as they're copied.
type Metrics struct {
	ChannelsLoaded      prometheus.Counter
	ChannelsFiltered    prometheus.Counter
	ChannelsTransformed prometheus.Counter
	ChannelsDuplicate   prometheus.Counter
	EpgElementsCopied   *prometheus.CounterVec
}

// New registers and returns a fresh set of pipeline counters.
func New() *Metrics {
	return &Metrics{
		ChannelsLoaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pefti_channels_loaded_total",
			Help: "Channel records emitted by the parser, across all sources.",
		}),
		ChannelsFiltered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pefti_channels_filtered_total",
			Help: "Channel records that survived the filter stage.",
		}),
		ChannelsTransformed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pefti_channels_transformed_total",
			Help: "Channel records appended to the destination playlist.",
		}),
		ChannelsDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pefti_channels_duplicate_total",
			Help: "Channel instances written as duplicates in the final playlist.",
		}),
		EpgElementsCopied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pefti_epg_elements_copied_total",
			Help: "XMLTV elements copied to the output EPG, by element name.",
		}, []string{"element"}),
	}
}

// Serve starts an HTTP server on addr exposing /metrics until ctx is
// done. It runs in the caller's goroutine; callers that want it in the
// background should call it with `go`.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log.Printf("pefti: metrics listening on %s", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
