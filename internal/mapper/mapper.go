// Package mapper implements the ChannelsMapper: the case-insensitive
// whole-token substring matcher between playlist channels and configured
// templates, with a memoized name-to-template cache and the
// template-to-instances relation used by the orderer.
package mapper

import (
	"strings"
	"sync"

	"github.com/pefti/pefti/internal/channel"
	"github.com/pefti/pefti/internal/config"
)

// Mapper holds the three relations owned by the ChannelsMapper: a
// memoized name-to-template cache (populated during filtering), a
// channel-to-template relation, and a template-to-instances relation
// (both populated by Populate after all pipelines drain).
type Mapper struct {
	templates []config.Template

	cacheMu sync.Mutex
	cache   map[string]int // lowercase original_name -> template index, memoized

	channelTemplate map[*channel.Channel]int
	instances       [][]*channel.Channel // indexed by template index, in discovery order until ordered
}

// New returns a Mapper over templates, matched in declaration order.
func New(templates []config.Template) *Mapper {
	return &Mapper{
		templates:       templates,
		cache:           make(map[string]int),
		channelTemplate: make(map[*channel.Channel]int),
		instances:       make([][]*channel.Channel, len(templates)),
	}
}

// Templates returns the configured templates in declaration order.
func (m *Mapper) Templates() []config.Template { return m.templates }

// MatchTemplate returns the index of the first template matching name, and
// whether any template matched. Safe for concurrent use by multiple
// filter goroutines: the match function is pure w.r.t. name, so a race on
// cache insertion is resolved "first writer wins, others discard".
func (m *Mapper) MatchTemplate(name string) (int, bool) {
	key := strings.ToLower(name)

	m.cacheMu.Lock()
	if idx, ok := m.cache[key]; ok {
		m.cacheMu.Unlock()
		if idx < 0 {
			return 0, false
		}
		return idx, true
	}
	m.cacheMu.Unlock()

	idx := -1
	for i, t := range m.templates {
		if matches(key, t) {
			idx = i
			break
		}
	}

	m.cacheMu.Lock()
	if existing, ok := m.cache[key]; ok {
		idx = existing
	} else {
		m.cache[key] = idx
	}
	m.cacheMu.Unlock()

	if idx < 0 {
		return 0, false
	}
	return idx, true
}

// IsAllowedChannel reports whether ch matches some template.
func (m *Mapper) IsAllowedChannel(ch *channel.Channel) bool {
	_, ok := m.MatchTemplate(ch.OriginalName)
	return ok
}

func matches(lowerName string, t config.Template) bool {
	for _, inc := range t.Include {
		if !wholeTokenContains(lowerName, strings.ToLower(inc)) {
			return false
		}
	}
	for _, exc := range t.Exclude {
		if wholeTokenContains(lowerName, strings.ToLower(exc)) {
			return false
		}
	}
	return true
}

// wholeTokenContains reports whether s occurs in lowerName with both
// flanking positions non-alphanumeric (start/end of string count as
// non-alphanumeric). Both arguments must already be lowercase.
func wholeTokenContains(lowerName, s string) bool {
	if s == "" {
		return true
	}
	start := 0
	for {
		idx := strings.Index(lowerName[start:], s)
		if idx < 0 {
			return false
		}
		pos := start + idx
		before := pos - 1
		after := pos + len(s)
		if (before < 0 || !isAlphanumeric(lowerName[before])) &&
			(after >= len(lowerName) || !isAlphanumeric(lowerName[after])) {
			return true
		}
		start = pos + 1
		if start >= len(lowerName) {
			return false
		}
	}
}

func isAlphanumeric(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// Populate walks channels once, after the pipelines have drained, and
// records channel-to-template and template-to-instances for every channel
// with a cached template match. It is single-threaded and needs no
// locking.
func (m *Mapper) Populate(channels []*channel.Channel) {
	for _, ch := range channels {
		idx, ok := m.MatchTemplate(ch.OriginalName)
		if !ok {
			continue
		}
		m.channelTemplate[ch] = idx
		m.instances[idx] = append(m.instances[idx], ch)
	}
}

// TemplateOf returns the template index matched by ch during Populate, if any.
func (m *Mapper) TemplateOf(ch *channel.Channel) (int, bool) {
	idx, ok := m.channelTemplate[ch]
	return idx, ok
}

// Instances returns the instance list for template index idx. Element 0
// is the priority pick once SetInstances has applied the sort order;
// subsequent elements are duplicates.
func (m *Mapper) Instances(idx int) []*channel.Channel {
	return m.instances[idx]
}

// SetInstances replaces the instance list for template idx, used by the
// orderer after sorting by quality priority.
func (m *Mapper) SetInstances(idx int, instances []*channel.Channel) {
	m.instances[idx] = instances
}
