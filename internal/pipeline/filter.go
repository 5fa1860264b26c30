package pipeline

import (
	"strings"

	"github.com/pefti/pefti/internal/channel"
	"github.com/pefti/pefti/internal/config"
	"github.com/pefti/pefti/internal/mapper"
	"github.com/pefti/pefti/internal/metrics"
	"github.com/pefti/pefti/internal/ring"
)

// Filter consumes a channel ring, drops blocked channels, and forwards
// survivors (and the sentinel) to the next ring. Metrics may be left nil,
// in which case no counters are recorded.
type Filter struct {
	cfg          *config.Config
	mapper       *mapper.Mapper
	allowedGroup map[string]struct{}
	Metrics      *metrics.Metrics
}

// NewFilter returns a Filter evaluating channels against cfg, consulting
// m to decide template-based allow-list matches.
func NewFilter(cfg *config.Config, m *mapper.Mapper) *Filter {
	allowed := make(map[string]struct{}, len(cfg.AllowedGroups))
	for _, g := range cfg.AllowedGroups {
		allowed[g] = struct{}{}
	}
	return &Filter{cfg: cfg, mapper: m, allowedGroup: allowed}
}

// Run drains src, applying the blocked-group/channel/URL/allow-list rules
// in order, writing survivors to dst, and forwarding the sentinel.
func (f *Filter) Run(src, dst *ring.Ring[*channel.Channel]) {
	for {
		ch := src.Get()
		if ch.IsSentinel() {
			dst.Put(ch)
			return
		}
		if f.Accept(ch) {
			dst.Put(ch)
			if f.Metrics != nil {
				f.Metrics.ChannelsFiltered.Inc()
			}
		}
	}
}

// Accept reports whether ch survives the filter, applying spec.md §4.4's
// rules in order: blocked group, blocked channel substring, blocked URL,
// then allow.
func (f *Filter) Accept(ch *channel.Channel) bool {
	if gt, ok := ch.Tag(channel.TagGroupTitle); ok {
		if _, blocked := f.cfg.BlockedGroups[gt]; blocked {
			return false
		}
	}
	for _, sub := range f.cfg.BlockedChannels {
		if sub != "" && strings.Contains(ch.OriginalName, sub) {
			return false
		}
	}
	if _, blocked := f.cfg.BlockedURLs[ch.URL]; blocked {
		return false
	}

	if len(f.cfg.ChannelsTemplates) == 0 && len(f.cfg.AllowedGroups) == 0 {
		return true
	}
	if gt, ok := ch.Tag(channel.TagGroupTitle); ok {
		if _, ok := f.allowedGroup[gt]; ok {
			return true
		}
	}
	return f.mapper.IsAllowedChannel(ch)
}
