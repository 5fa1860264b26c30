package pipeline

import (
	"sort"
	"strings"

	"github.com/pefti/pefti/internal/channel"
	"github.com/pefti/pefti/internal/config"
	"github.com/pefti/pefti/internal/mapper"
)

// ApplyCopyGroupTitle runs the copy_group_title post-pipeline pass: a
// template with no explicit group-title tag inherits the effective
// group-title of the preceding template in declaration order
// (recursively; the first template's missing group-title stays empty).
// Only channels that did not already receive a group-title tag from their
// own template are updated. A no-op when the flag is off.
func ApplyCopyGroupTitle(cfg *config.Config, m *mapper.Mapper) {
	if !cfg.CopyGroupTitle {
		return
	}
	var inherited string
	for idx, tmpl := range cfg.ChannelsTemplates {
		effective := inherited
		own := false
		for _, tag := range tmpl.Tags {
			if tag.Name == channel.TagGroupTitle {
				effective = tag.Value
				own = true
				break
			}
		}
		inherited = effective
		if own || effective == "" {
			continue
		}
		for _, ch := range m.Instances(idx) {
			ch.SetTag(channel.TagGroupTitle, effective)
		}
	}
}

// OrderBySortCriteria sorts each template's instance list by priority:
// the index of the first sort_qualities entry occurring as a substring of
// original_name, with no match sorted last. The sort is stable so ties
// preserve discovery order.
func OrderBySortCriteria(cfg *config.Config, m *mapper.Mapper) {
	for idx := range cfg.ChannelsTemplates {
		instances := append([]*channel.Channel(nil), m.Instances(idx)...)
		sort.SliceStable(instances, func(i, j int) bool {
			return qualityPriority(instances[i].OriginalName, cfg.SortQualities) <
				qualityPriority(instances[j].OriginalName, cfg.SortQualities)
		})
		m.SetInstances(idx, instances)
	}
}

func qualityPriority(name string, sortQualities []string) int {
	for i, q := range sortQualities {
		if q != "" && strings.Contains(name, q) {
			return i
		}
	}
	return len(sortQualities)
}
