package pipeline

import (
	"strings"

	"github.com/pefti/pefti/internal/channel"
	"github.com/pefti/pefti/internal/metrics"
	"github.com/pefti/pefti/internal/ring"
)

type parserState int

const (
	waitingForExtinf parserState = iota
	waitingForURL
)

// Parser consumes a byte ring a line at a time and emits one channel
// record per #EXTINF/URL pair into a record ring, forwarding the
// end-of-stream sentinel when it sees the byte ring's. Metrics may be left
// nil, in which case no counters are recorded.
type Parser struct {
	Metrics *metrics.Metrics
}

// NewParser returns a Parser.
func NewParser() *Parser { return &Parser{} }

// Parse runs the two-state line FSM over src until the byte sentinel,
// writing channel records (and finally the record sentinel) to dst.
func (p *Parser) Parse(src *ring.ByteRing, dst *ring.Ring[*channel.Channel]) {
	state := waitingForExtinf
	var current *channel.Channel
	scratch := make([]byte, 0, 256)

	for {
		b := src.ReadByte()
		if b == ring.ByteSentinelFirst {
			b2 := src.ReadByte()
			if b2 == ring.ByteSentinelSecond {
				break
			}
			// A lone 0x89 is content; b2 is handled as an ordinary byte.
			scratch = append(scratch, b)
			b = b2
		}
		if b != '\n' {
			scratch = append(scratch, b)
			continue
		}

		line := string(scratch)
		scratch = scratch[:0]

		switch state {
		case waitingForExtinf:
			if strings.HasPrefix(line, "#EXTINF") {
				current = parseExtinf(line)
				state = waitingForURL
			}
		case waitingForURL:
			switch {
			case strings.HasPrefix(line, "#EXTINF"):
				// Duplicate #EXTINF before a URL overwrites the in-flight channel.
				current = parseExtinf(line)
			case strings.HasPrefix(line, "http"):
				current.URL = line
				dst.Put(current)
				if p.Metrics != nil {
					p.Metrics.ChannelsLoaded.Inc()
				}
				current = nil
				state = waitingForExtinf
			}
		}
	}

	dst.Put(channel.New(channel.Sentinel))
}

// parseExtinf builds a Channel from a "#EXTINF:..." line. The display
// name is the substring after the last comma occurring after the last
// '=', which tolerates commas inside quoted tag values. A line with no
// usable comma yields an empty original_name (a malformed record,
// filtered out downstream) but still produces a Channel.
func parseExtinf(line string) *channel.Channel {
	rest := line
	if idx := strings.Index(rest, ":"); idx >= 0 {
		rest = rest[idx+1:]
	}

	nameStart := -1
	if lastEq := strings.LastIndex(rest, "="); lastEq >= 0 {
		if comma := strings.LastIndex(rest[lastEq:], ","); comma >= 0 {
			nameStart = lastEq + comma
		}
	} else if comma := strings.LastIndex(rest, ","); comma >= 0 {
		nameStart = comma
	}

	var name, tagsPart string
	if nameStart < 0 {
		name = ""
		tagsPart = rest
	} else {
		name = strings.TrimSpace(rest[nameStart+1:])
		tagsPart = rest[:nameStart]
	}

	ch := channel.New(name)
	parseExtinfTags(tagsPart, ch)
	return ch
}

// parseExtinfTags scans key=value pairs from the portion of an #EXTINF
// line preceding the display name. A value may be double-quoted (commas
// and spaces permitted inside, empty value permitted) or unquoted
// (terminated by whitespace). Tokens without '=' (the leading duration)
// are skipped.
func parseExtinfTags(s string, ch *channel.Channel) {
	i, n := 0, len(s)
	for i < n {
		for i < n && s[i] == ' ' {
			i++
		}
		if i >= n {
			break
		}
		start := i
		for i < n && s[i] != '=' && s[i] != ' ' {
			i++
		}
		key := s[start:i]
		if i >= n || s[i] != '=' {
			continue
		}
		i++ // skip '='
		var value string
		if i < n && s[i] == '"' {
			i++
			vstart := i
			for i < n && s[i] != '"' {
				i++
			}
			value = s[vstart:i]
			if i < n {
				i++ // skip closing quote
			}
		} else {
			vstart := i
			for i < n && s[i] != ' ' {
				i++
			}
			value = s[vstart:i]
		}
		if key != "" {
			ch.SetTag(key, value)
		}
	}
}
