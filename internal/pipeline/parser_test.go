package pipeline

import (
	"testing"

	"github.com/pefti/pefti/internal/channel"
	"github.com/pefti/pefti/internal/ring"
)

func runParser(t *testing.T, m3u string) []*channel.Channel {
	t.Helper()
	src := ring.NewByteRing(16)
	dst := ring.NewRing[*channel.Channel](8)
	go func() {
		_, _ = src.Write([]byte(m3u))
		src.WriteSentinel()
	}()
	NewParser().Parse(src, dst)

	var got []*channel.Channel
	for {
		ch := dst.Get()
		if ch.IsSentinel() {
			break
		}
		got = append(got, ch)
	}
	return got
}

func TestParserBasicPair(t *testing.T) {
	m3u := "#EXTM3U\n#EXTINF:-1 tvg-id=\"bbc1.uk\" group-title=\"News\",BBC One HD\nhttp://example.com/bbc1\n"
	got := runParser(t, m3u)
	if len(got) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(got))
	}
	ch := got[0]
	if ch.OriginalName != "BBC One HD" || ch.URL != "http://example.com/bbc1" {
		t.Errorf("channel = %+v", ch)
	}
	if v, _ := ch.Tag("tvg-id"); v != "bbc1.uk" {
		t.Errorf("tvg-id = %q", v)
	}
	if v, _ := ch.Tag("group-title"); v != "News" {
		t.Errorf("group-title = %q", v)
	}
}

func TestParserCommaInsideQuotedValue(t *testing.T) {
	m3u := "#EXTINF:-1 tvg-name=\"A, B\" group-title=\"News, World\",Actual Name\nhttp://example.com/x\n"
	got := runParser(t, m3u)
	if len(got) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(got))
	}
	if got[0].OriginalName != "Actual Name" {
		t.Errorf("original name = %q", got[0].OriginalName)
	}
}

func TestParserMalformedNoComma(t *testing.T) {
	m3u := "#EXTINF:-1 tvg-id=\"x\"\nhttp://example.com/x\n"
	got := runParser(t, m3u)
	if len(got) != 1 {
		t.Fatalf("expected 1 channel even when malformed, got %d", len(got))
	}
	if got[0].OriginalName != "" {
		t.Errorf("expected empty original_name for malformed EXTINF, got %q", got[0].OriginalName)
	}
}

func TestParserDuplicateExtinfOverwrites(t *testing.T) {
	m3u := "#EXTINF:-1,First\n#EXTINF:-1,Second\nhttp://example.com/x\n"
	got := runParser(t, m3u)
	if len(got) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(got))
	}
	if got[0].OriginalName != "Second" {
		t.Errorf("expected second EXTINF to win, got %q", got[0].OriginalName)
	}
}

func TestParserMultiplePairsAcrossWraparound(t *testing.T) {
	m3u := "#EXTINF:-1,Channel A\nhttp://example.com/a\n#EXTINF:-1,Channel B\nhttp://example.com/b\n"
	got := runParser(t, m3u)
	if len(got) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(got))
	}
	if got[0].OriginalName != "Channel A" || got[1].OriginalName != "Channel B" {
		t.Errorf("got = %+v, %+v", got[0], got[1])
	}
}
