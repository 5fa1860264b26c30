package playlist

import (
	"io"

	"github.com/pefti/pefti/internal/channel"
	"github.com/pefti/pefti/internal/config"
	"github.com/pefti/pefti/internal/mapper"
)

// BuildOutputOrder implements the Orderer (spec.md §4.7): for each
// template in declaration order, the priority pick and (for
// DuplicatesInline) its capped duplicate block; for DuplicatesAppend, all
// priority picks followed by every template's duplicate block; then, for
// each allowed group in declaration order, every playlist channel in that
// group not matched by any template. Duplicates beyond num_duplicates are
// dropped; every duplicate has its tvg-id stripped.
func BuildOutputOrder(pl *Playlist, m *mapper.Mapper, cfg *config.Config) []*channel.Channel {
	var out []*channel.Channel

	appendDuplicates := func(idx int) {
		instances := m.Instances(idx)
		if len(instances) == 0 {
			return
		}
		dupCount := min(cfg.NumDuplicates, len(instances)-1)
		for i := 1; i <= dupCount; i++ {
			dup := instances[i]
			dup.DeleteTag(channel.TagTvgID)
			out = append(out, dup)
		}
	}

	for idx := range cfg.ChannelsTemplates {
		instances := m.Instances(idx)
		if len(instances) == 0 {
			continue
		}
		out = append(out, instances[0])
		if cfg.DuplicatesLocation == config.DuplicatesInline {
			appendDuplicates(idx)
		}
	}
	if cfg.DuplicatesLocation == config.DuplicatesAppend {
		for idx := range cfg.ChannelsTemplates {
			appendDuplicates(idx)
		}
	}

	matched := make(map[*channel.Channel]struct{})
	for idx := range cfg.ChannelsTemplates {
		for _, ch := range m.Instances(idx) {
			matched[ch] = struct{}{}
		}
	}
	for _, group := range cfg.AllowedGroups {
		for _, ch := range pl.Channels() {
			if _, ok := matched[ch]; ok {
				continue
			}
			if g, ok := ch.Tag(channel.TagGroupTitle); ok && g == group {
				out = append(out, ch)
			}
		}
	}

	return out
}

// Render writes the final playlist file: the #EXTM3U header followed by
// one #EXTINF/URL pair per channel, in the order given.
func Render(w io.Writer, channels []*channel.Channel) error {
	if _, err := io.WriteString(w, "#EXTM3U\n"); err != nil {
		return err
	}
	for _, ch := range channels {
		if _, err := io.WriteString(w, ch.RenderEXTINF()); err != nil {
			return err
		}
	}
	return nil
}
