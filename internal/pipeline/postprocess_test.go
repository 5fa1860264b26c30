package pipeline

import (
	"testing"

	"github.com/pefti/pefti/internal/channel"
	"github.com/pefti/pefti/internal/config"
	"github.com/pefti/pefti/internal/mapper"
)

func TestApplyCopyGroupTitleInherits(t *testing.T) {
	templates := []config.Template{
		{Include: []string{"bbc one"}, Tags: []channel.TagPair{{Name: channel.TagGroupTitle, Value: "Entertainment"}}},
		{Include: []string{"bbc two"}}, // no explicit group-title
	}
	cfg := &config.Config{ChannelsTemplates: templates, CopyGroupTitle: true}
	m := mapper.New(templates)

	bbcTwo := channel.New("BBC Two")
	m.Populate([]*channel.Channel{bbcTwo})

	ApplyCopyGroupTitle(cfg, m)

	if v, ok := bbcTwo.Tag(channel.TagGroupTitle); !ok || v != "Entertainment" {
		t.Errorf("expected inherited group-title, got %q, %v", v, ok)
	}
}

func TestApplyCopyGroupTitleDisabled(t *testing.T) {
	templates := []config.Template{
		{Include: []string{"bbc one"}, Tags: []channel.TagPair{{Name: channel.TagGroupTitle, Value: "Entertainment"}}},
		{Include: []string{"bbc two"}},
	}
	cfg := &config.Config{ChannelsTemplates: templates, CopyGroupTitle: false}
	m := mapper.New(templates)
	bbcTwo := channel.New("BBC Two")
	m.Populate([]*channel.Channel{bbcTwo})

	ApplyCopyGroupTitle(cfg, m)

	if _, ok := bbcTwo.Tag(channel.TagGroupTitle); ok {
		t.Errorf("expected no group-title set when flag disabled")
	}
}

func TestOrderBySortCriteria(t *testing.T) {
	templates := []config.Template{{Include: []string{"bbc one"}}}
	cfg := &config.Config{ChannelsTemplates: templates, SortQualities: []string{"FHD", "HD"}}
	m := mapper.New(templates)

	plain := channel.New("BBC One")
	hd := channel.New("BBC One HD")
	m.Populate([]*channel.Channel{plain, hd})

	OrderBySortCriteria(cfg, m)

	instances := m.Instances(0)
	if len(instances) != 2 || instances[0] != hd || instances[1] != plain {
		t.Errorf("expected HD instance first, got %+v", instances)
	}
}
