package epg

import (
	"strings"
	"testing"
)

type fakeTvgIDs map[string]struct{}

func (f fakeTvgIDs) HasTvgID(id string) bool {
	_, ok := f[id]
	return ok
}

const sampleEPG = `<?xml version="1.0" encoding="utf-8"?>
<tv>
  <channel id="bbc1.uk">
    <display-name lang="en">BBC One</display-name>
  </channel>
  <channel id="cnn.us">
    <display-name lang="en">CNN</display-name>
  </channel>
  <programme start="20260101000000 +0000" stop="20260101003000 +0000" channel="bbc1.uk">
    <title lang="en">Breakfast</title>
  </programme>
  <programme start="20260101000000 +0000" stop="20260101003000 +0000" channel="bbc1.uk">
    <title lang="en">News at One</title>
  </programme>
  <programme start="20260101000000 +0000" stop="20260101003000 +0000" channel="cnn.us">
    <title lang="en">World Report</title>
  </programme>
  <programme start="20260101003000 +0000" stop="20260101010000 +0000" channel="cnn.us">
    <title lang="en">Newsroom</title>
  </programme>
  <programme start="20260101010000 +0000" stop="20260101013000 +0000" channel="cnn.us">
    <title lang="en">Tonight</title>
  </programme>
</tv>`

func TestFilterDocumentFramingAndSoundness(t *testing.T) {
	pl := fakeTvgIDs{"bbc1.uk": {}}
	var b strings.Builder
	if err := FilterDocument(&b, []byte(sampleEPG), pl); err != nil {
		t.Fatal(err)
	}
	out := b.String()

	if !strings.HasPrefix(out, "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<!DOCTYPE tv SYSTEM \"xmltv.dtd\">\n<tv generator-info-name=\"pefti\">") {
		t.Errorf("unexpected prefix: %q", out[:min(120, len(out))])
	}
	if !strings.HasSuffix(out, "\n</tv>\n") {
		t.Errorf("unexpected suffix: %q", out[max(0, len(out)-40):])
	}

	if strings.Count(out, "<channel ") != 1 {
		t.Errorf("expected exactly one <channel> element, got %d", strings.Count(out, "<channel "))
	}
	if strings.Count(out, "<programme ") != 2 {
		t.Errorf("expected exactly two <programme> elements, got %d", strings.Count(out, "<programme "))
	}
	if strings.Contains(out, "cnn.us") {
		t.Errorf("did not expect any cnn.us element to survive")
	}
}

func TestCopyElementsPreservesChildrenAndAttributes(t *testing.T) {
	pl := fakeTvgIDs{"bbc1.uk": {}}
	var b strings.Builder
	if err := CopyElements(&b, strings.NewReader(sampleEPG), "channel", "id", pl); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	if !strings.Contains(out, `<channel id="bbc1.uk">`) {
		t.Errorf("expected channel open tag with id attribute, got %q", out)
	}
	if !strings.Contains(out, `<display-name lang="en">BBC One</display-name>`) {
		t.Errorf("expected nested display-name preserved, got %q", out)
	}
}

func TestCopyElementsSkipsUnknownSubtree(t *testing.T) {
	pl := fakeTvgIDs{}
	var b strings.Builder
	if err := CopyElements(&b, strings.NewReader(sampleEPG), "channel", "id", pl); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 0 {
		t.Errorf("expected no output when no tvg-id is known, got %q", b.String())
	}
}
