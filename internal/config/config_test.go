package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pefti.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMinimal(t *testing.T) {
	path := writeConfig(t, `
[resources]
playlists = ["http://example.com/one.m3u"]
new_playlist = "out.m3u"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.PlaylistsURLs) != 1 || cfg.NewPlaylistFilename != "out.m3u" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.DuplicatesLocation != DuplicatesNone || cfg.NumDuplicates != 0 {
		t.Errorf("expected default None/0 duplicates, got %v/%d", cfg.DuplicatesLocation, cfg.NumDuplicates)
	}
}

func TestLoadMissingPlaylists(t *testing.T) {
	path := writeConfig(t, `
[resources]
new_playlist = "out.m3u"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing resources.playlists")
	}
}

func TestLoadEpgsRequiresNewEpg(t *testing.T) {
	path := writeConfig(t, `
[resources]
playlists = ["http://example.com/one.m3u"]
new_playlist = "out.m3u"
epgs = ["http://example.com/guide.xml"]
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for epgs without new_epg")
	}
}

func TestLoadTemplatesAndDuplicates(t *testing.T) {
	path := writeConfig(t, `
[resources]
playlists = ["http://example.com/one.m3u"]
new_playlist = "out.m3u"

[channels]
number_of_duplicates = 1
duplicates_location = "inline"
sort_qualities = ["FHD", "HD"]

[[channels.allow]]
i = ["bbc one"]
n = "BBC 1"

[channels.allow.t]
tvg-id = "bbc1.uk"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DuplicatesLocation != DuplicatesInline || cfg.NumDuplicates != 1 {
		t.Errorf("duplicates = %v/%d", cfg.DuplicatesLocation, cfg.NumDuplicates)
	}
	if len(cfg.ChannelsTemplates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(cfg.ChannelsTemplates))
	}
	tmpl := cfg.ChannelsTemplates[0]
	if tmpl.EffectiveName() != "BBC 1" {
		t.Errorf("EffectiveName() = %q", tmpl.EffectiveName())
	}
	if len(tmpl.Tags) != 1 || tmpl.Tags[0].Name != "tvg-id" || tmpl.Tags[0].Value != "bbc1.uk" {
		t.Errorf("tags = %+v", tmpl.Tags)
	}
}

func TestEffectiveNameDefaultsToFirstInclude(t *testing.T) {
	tmpl := Template{Include: []string{"cnn"}}
	if tmpl.EffectiveName() != "cnn" {
		t.Errorf("EffectiveName() = %q", tmpl.EffectiveName())
	}
}

func TestLoadRejectsNegativeDuplicates(t *testing.T) {
	path := writeConfig(t, `
[resources]
playlists = ["http://example.com/one.m3u"]
new_playlist = "out.m3u"

[channels]
number_of_duplicates = -1
duplicates_location = "inline"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for negative number_of_duplicates")
	}
}
