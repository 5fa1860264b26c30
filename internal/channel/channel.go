// Package channel defines the in-memory playlist record that flows through
// the loader/parser/filter/transformer pipeline and is ultimately appended
// to the destination playlist.
package channel

import "strings"

// Well-known tag names.
const (
	TagGroupTitle = "group-title"
	TagTvgID      = "tvg-id"
	TagQuality    = "quality"
	TagDelete     = "delete"
)

// Sentinel is the literal original_name used by the record-ring discipline
// to signal end-of-stream. A channel carrying this name is never a real
// playlist entry.
const Sentinel = "SENTINEL"

// Channel is one playlist entry. Identity for mapping purposes is the
// memory location of the Channel during a single pipeline run, not
// OriginalName; callers that need a stable handle hold a *Channel or an
// index into the playlist's backing slice, never a copy.
type Channel struct {
	OriginalName string
	NewName      string
	URL          string
	Tags         map[string]string
}

// New returns a Channel with NewName initialized to name, per the data
// model's "new_name initially = original" rule.
func New(name string) *Channel {
	return &Channel{
		OriginalName: name,
		NewName:      name,
		Tags:         make(map[string]string),
	}
}

// IsSentinel reports whether ch is the record-ring end-of-stream marker.
func (ch *Channel) IsSentinel() bool {
	return ch != nil && ch.OriginalName == Sentinel
}

// Tag returns the value of tag name and whether it is present.
func (ch *Channel) Tag(name string) (string, bool) {
	v, ok := ch.Tags[name]
	return v, ok
}

// SetTag sets tag name to value, overwriting any existing value.
func (ch *Channel) SetTag(name, value string) {
	if ch.Tags == nil {
		ch.Tags = make(map[string]string)
	}
	ch.Tags[name] = value
}

// DeleteTag removes tag name if present.
func (ch *Channel) DeleteTag(name string) {
	delete(ch.Tags, name)
}

// ApplyTemplateTags copies tags into ch.Tags, overwriting existing keys,
// per the transformer's "template values overwrite existing keys" rule.
func (ch *Channel) ApplyTemplateTags(tags []TagPair) {
	for _, t := range tags {
		ch.SetTag(t.Name, t.Value)
	}
}

// TagPair is an ordered (name, value) pair, used where tag application
// order matters (template tag lists).
type TagPair struct {
	Name  string
	Value string
}

// RenderEXTINF writes the output playlist line(s) for ch in the form
// "#EXTINF:-1 k1=\"v1\" k2=\"v2\" ...,<new_name>\n<url>\n". Tag order is
// unspecified by the format; RenderEXTINF iterates ch.Tags in map order.
func (ch *Channel) RenderEXTINF() string {
	var b strings.Builder
	b.WriteString("#EXTINF:-1")
	for k, v := range ch.Tags {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(v)
		b.WriteString(`"`)
	}
	b.WriteByte(',')
	b.WriteString(ch.NewName)
	b.WriteByte('\n')
	b.WriteString(ch.URL)
	b.WriteByte('\n')
	return b.String()
}
