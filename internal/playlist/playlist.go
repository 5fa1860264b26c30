// Package playlist implements the destination Playlist — the ordered,
// thread-safe sequence of surviving channels transformers append to — and
// the Orderer that renders it to the final output file.
package playlist

import (
	"sync"

	"github.com/pefti/pefti/internal/channel"
)

// Playlist is the shared destination every transformer appends to.
// Channel identity is pointer identity: a *channel.Channel allocated by
// the parser keeps the same address for the rest of the run regardless of
// how the Playlist's own backing slice grows, so the mapper's
// channel-to-template relation stays valid without any upfront capacity
// reservation.
type Playlist struct {
	mu       sync.Mutex
	channels []*channel.Channel

	tvgIDOnce sync.Once
	tvgIDs    map[string]struct{}
}

// New returns an empty Playlist.
func New() *Playlist {
	return &Playlist{}
}

// Append adds ch to the playlist. Safe for concurrent use by multiple
// transformer goroutines, serialized on a single mutex per spec.md §5's
// shared-resource policy.
func (p *Playlist) Append(ch *channel.Channel) {
	p.mu.Lock()
	p.channels = append(p.channels, ch)
	p.mu.Unlock()
}

// Channels returns the playlist's channels. Callers must only invoke this
// after the pipeline join, when no transformer can still be appending.
func (p *Playlist) Channels() []*channel.Channel {
	return p.channels
}

// HasTvgID reports whether id is the tvg-id of some channel in the
// playlist. The id set is built lazily on first query and cached for the
// life of the Playlist.
func (p *Playlist) HasTvgID(id string) bool {
	p.tvgIDOnce.Do(p.buildTvgIDs)
	_, ok := p.tvgIDs[id]
	return ok
}

func (p *Playlist) buildTvgIDs() {
	p.tvgIDs = make(map[string]struct{}, len(p.channels))
	for _, ch := range p.channels {
		if id, ok := ch.Tag(channel.TagTvgID); ok && id != "" {
			p.tvgIDs[id] = struct{}{}
		}
	}
}
