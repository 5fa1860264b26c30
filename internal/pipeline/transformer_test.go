package pipeline

import (
	"testing"

	"github.com/pefti/pefti/internal/channel"
	"github.com/pefti/pefti/internal/config"
	"github.com/pefti/pefti/internal/mapper"
	"github.com/pefti/pefti/internal/playlist"
	"github.com/pefti/pefti/internal/ring"
)

func TestTransformerAppliesTemplateTagsAndRename(t *testing.T) {
	templates := []config.Template{{
		Include: []string{"bbc one"},
		NewName: "BBC 1",
		Tags:    []channel.TagPair{{Name: channel.TagTvgID, Value: "bbc1.uk"}},
	}}
	cfg := &config.Config{ChannelsTemplates: templates}
	m := mapper.New(templates)
	pl := playlist.New()
	tr := NewTransformer(cfg, m, pl)

	ch := channel.New("BBC One HD")
	tr.transform(ch)

	if ch.NewName != "BBC 1" {
		t.Errorf("new_name = %q", ch.NewName)
	}
	if v, _ := ch.Tag(channel.TagTvgID); v != "bbc1.uk" {
		t.Errorf("tvg-id = %q", v)
	}
}

func TestTransformerDeletesBlockedTagsRegardlessOfMatch(t *testing.T) {
	cfg := &config.Config{BlockedTags: []string{channel.TagQuality}}
	m := mapper.New(nil)
	pl := playlist.New()
	tr := NewTransformer(cfg, m, pl)

	ch := channel.New("CNN")
	ch.SetTag(channel.TagQuality, "HD")
	tr.transform(ch)

	if _, ok := ch.Tag(channel.TagQuality); ok {
		t.Errorf("expected blocked tag removed even without a template match")
	}
}

func TestTransformerAppendsToPlaylist(t *testing.T) {
	cfg := &config.Config{}
	pl := playlist.New()
	tr := NewTransformer(cfg, mapper.New(nil), pl)
	src := ring.NewRing[*channel.Channel](4)

	ch := channel.New("CNN")
	go func() {
		src.Put(ch)
		src.Put(channel.New(channel.Sentinel))
	}()
	tr.Run(src)

	if len(pl.Channels()) != 1 || pl.Channels()[0] != ch {
		t.Errorf("expected channel appended to playlist")
	}
}
