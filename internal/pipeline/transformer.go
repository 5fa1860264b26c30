package pipeline

import (
	"github.com/pefti/pefti/internal/channel"
	"github.com/pefti/pefti/internal/config"
	"github.com/pefti/pefti/internal/mapper"
	"github.com/pefti/pefti/internal/playlist"
	"github.com/pefti/pefti/internal/ring"
)

// Transformer consumes the post-filter ring, attaches template tags,
// removes blocked tags, renames, and appends surviving channels to the
// shared destination playlist.
type Transformer struct {
	cfg      *config.Config
	mapper   *mapper.Mapper
	playlist *playlist.Playlist
}

// NewTransformer returns a Transformer writing into pl.
func NewTransformer(cfg *config.Config, m *mapper.Mapper, pl *playlist.Playlist) *Transformer {
	return &Transformer{cfg: cfg, mapper: m, playlist: pl}
}

// Run drains src, transforming and appending each surviving channel to
// the playlist, until the sentinel.
func (t *Transformer) Run(src *ring.Ring[*channel.Channel]) {
	for {
		ch := src.Get()
		if ch.IsSentinel() {
			return
		}
		t.transform(ch)
		t.playlist.Append(ch)
	}
}

func (t *Transformer) transform(ch *channel.Channel) {
	idx, matched := t.mapper.MatchTemplate(ch.OriginalName)
	if matched {
		ch.ApplyTemplateTags(t.mapper.Templates()[idx].Tags)
	}
	for _, name := range t.cfg.BlockedTags {
		ch.DeleteTag(name)
	}
	if matched {
		ch.NewName = t.mapper.Templates()[idx].EffectiveName()
	}
}
