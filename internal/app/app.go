// Package app wires one pefti run together: it owns the shared Playlist
// and ChannelsMapper, fans out a loader/parser/filter/transformer chain
// per configured playlist URL, joins them, runs the post-process and
// Orderer passes, and finally filters every configured EPG source into
// the destination XMLTV file.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/pefti/pefti/internal/channel"
	"github.com/pefti/pefti/internal/config"
	"github.com/pefti/pefti/internal/epg"
	"github.com/pefti/pefti/internal/httpclient"
	"github.com/pefti/pefti/internal/mapper"
	"github.com/pefti/pefti/internal/metrics"
	"github.com/pefti/pefti/internal/pipeline"
	"github.com/pefti/pefti/internal/playlist"
	"github.com/pefti/pefti/internal/ring"
	"github.com/pefti/pefti/internal/safeurl"
)

const (
	byteRingCapacity   = 64 * 1024
	recordRingCapacity = 64
)

// IoError wraps a failure to open or write an output file, the IoError
// error kind.
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string { return fmt.Sprintf("io: %s: %v", e.Path, e.Err) }
func (e *IoError) Unwrap() error { return e.Err }

// Application holds everything one Run needs: the validated
// configuration and an optional metrics sink.
type Application struct {
	Config  *config.Config
	Metrics *metrics.Metrics
}

// New returns an Application for cfg. m may be nil, in which case no
// counters are recorded.
func New(cfg *config.Config, m *metrics.Metrics) *Application {
	return &Application{Config: cfg, Metrics: m}
}

// Run executes one complete build: every configured playlist source is
// loaded, parsed, filtered and transformed into the shared Playlist; the
// post-process and Orderer passes run; the playlist is rendered to its
// destination file; and, if any EPG sources are configured, each is
// filtered against the finished playlist's tvg-ids into the destination
// EPG file.
//
// EPG fetching starts concurrently with playlist processing (matching
// spec.md's description of E_i running independently), but each EPG
// goroutine blocks until the playlist's one-shot completion event fires,
// since filtering needs the finished tvg-id set.
func (a *Application) Run(ctx context.Context) error {
	mapr := mapper.New(a.Config.ChannelsTemplates)
	pl := playlist.New()

	playlistReady := make(chan struct{})
	epgSources := make([][]byte, len(a.Config.EpgsURLs))
	epgErrs := make(chan error, len(a.Config.EpgsURLs))
	var epgWG sync.WaitGroup

	for i, url := range a.Config.EpgsURLs {
		epgWG.Add(1)
		go func(i int, url string) {
			defer epgWG.Done()
			data, err := fetchEpg(ctx, url)
			if err != nil {
				epgErrs <- err
				return
			}
			<-playlistReady
			epgSources[i] = data
		}(i, url)
	}
	defer func() {
		select {
		case <-playlistReady:
		default:
			close(playlistReady)
		}
		epgWG.Wait()
	}()

	if err := a.processPlaylists(ctx, mapr, pl); err != nil {
		return err
	}

	mapr.Populate(pl.Channels())
	pipeline.ApplyCopyGroupTitle(a.Config, mapr)
	pipeline.OrderBySortCriteria(a.Config, mapr)

	ordered := playlist.BuildOutputOrder(pl, mapr, a.Config)
	if a.Metrics != nil {
		a.Metrics.ChannelsTransformed.Add(float64(len(pl.Channels())))
		a.Metrics.ChannelsDuplicate.Add(float64(countDuplicates(mapr, a.Config)))
	}
	if err := a.writePlaylist(ordered); err != nil {
		return err
	}

	close(playlistReady)
	epgWG.Wait()
	close(epgErrs)
	for err := range epgErrs {
		if err != nil {
			return err
		}
	}

	if len(a.Config.EpgsURLs) == 0 {
		return nil
	}
	return a.writeEpg(pl, epgSources)
}

// countDuplicates mirrors the Orderer's duplicate cap (spec.md §4.7) to
// report how many duplicate instances it will emit, for metrics only.
func countDuplicates(m *mapper.Mapper, cfg *config.Config) int {
	if cfg.DuplicatesLocation == config.DuplicatesNone {
		return 0
	}
	total := 0
	for idx := range cfg.ChannelsTemplates {
		n := len(m.Instances(idx))
		if n == 0 {
			continue
		}
		total += min(cfg.NumDuplicates, n-1)
	}
	return total
}

// processPlaylists runs one loader/parser/filter/transformer chain per
// configured playlist URL and joins them with a WaitGroup and a buffered
// error channel.
func (a *Application) processPlaylists(ctx context.Context, mapr *mapper.Mapper, pl *playlist.Playlist) error {
	urls := a.Config.PlaylistsURLs
	var wg sync.WaitGroup
	errs := make(chan error, len(urls))

	for _, url := range urls {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			if err := a.runSource(ctx, url, mapr, pl); err != nil {
				errs <- err
			}
		}(url)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// runSource builds one playlist source's ring chain and runs its four
// stages concurrently, returning the loader's error, if any.
func (a *Application) runSource(ctx context.Context, url string, mapr *mapper.Mapper, pl *playlist.Playlist) error {
	byteRing := ring.NewByteRing(byteRingCapacity)
	parsed := ring.NewRing[*channel.Channel](recordRingCapacity)
	filtered := ring.NewRing[*channel.Channel](recordRingCapacity)

	loader := pipeline.NewLoader(nil)
	parser := pipeline.NewParser()
	parser.Metrics = a.Metrics
	filter := pipeline.NewFilter(a.Config, mapr)
	filter.Metrics = a.Metrics
	transformer := pipeline.NewTransformer(a.Config, mapr, pl)

	var stages sync.WaitGroup
	var loadErr error

	stages.Add(4)
	go func() { defer stages.Done(); loadErr = loader.Load(ctx, url, byteRing) }()
	go func() { defer stages.Done(); parser.Parse(byteRing, parsed) }()
	go func() { defer stages.Done(); filter.Run(parsed, filtered) }()
	go func() { defer stages.Done(); transformer.Run(filtered) }()
	stages.Wait()

	return loadErr
}

func (a *Application) writePlaylist(channels []*channel.Channel) error {
	f, err := os.Create(a.Config.NewPlaylistFilename)
	if err != nil {
		return &IoError{Path: a.Config.NewPlaylistFilename, Err: err}
	}
	defer f.Close()

	if err := playlist.Render(f, channels); err != nil {
		return &IoError{Path: a.Config.NewPlaylistFilename, Err: err}
	}
	return nil
}

func (a *Application) writeEpg(pl *playlist.Playlist, sources [][]byte) error {
	f, err := os.Create(a.Config.NewEpgFilename)
	if err != nil {
		return &IoError{Path: a.Config.NewEpgFilename, Err: err}
	}
	defer f.Close()

	if err := epg.FilterSourcesWithMetrics(f, sources, pl, a.Metrics); err != nil {
		return err
	}
	return nil
}

// fetchEpg downloads one EPG source document in full; unlike a playlist,
// an XMLTV document is parsed twice in memory so it is not worth
// streaming through a byte ring.
func fetchEpg(ctx context.Context, url string) ([]byte, error) {
	if !safeurl.IsHTTPOrHTTPS(url) {
		return nil, &pipeline.TransportError{URL: url, Err: fmt.Errorf("unsupported URL scheme")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &pipeline.TransportError{URL: url, Err: err}
	}
	resp, err := httpclient.DoWithRetry(ctx, httpclient.Default(), req, httpclient.DefaultRetryPolicy)
	if err != nil {
		return nil, &pipeline.TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &pipeline.TransportError{URL: url, Err: err}
	}
	return data, nil
}
