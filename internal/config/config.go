// Package config loads and validates the TOML configuration document that
// drives one pefti run: source URLs, output filenames, group/channel
// block-and-allow rules, duplicate handling, and channel templates.
package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/pefti/pefti/internal/channel"
)

// DuplicatesLocation selects where duplicate instances of a matched
// template are written in the output playlist.
type DuplicatesLocation int

const (
	DuplicatesNone DuplicatesLocation = iota
	DuplicatesInline
	DuplicatesAppend
)

// Template is a declarative channel matcher: all Include substrings must
// match (AND), any Exclude substring excludes (OR); NewName defaults to
// Include[0] when empty.
type Template struct {
	Include []string
	Exclude []string
	NewName string
	Tags    []channel.TagPair
}

// EffectiveName returns t.NewName, defaulting to the first include
// substring when NewName was not set.
func (t Template) EffectiveName() string {
	if t.NewName != "" {
		return t.NewName
	}
	if len(t.Include) > 0 {
		return t.Include[0]
	}
	return ""
}

// Config is the typed, validated view over the configuration document.
type Config struct {
	PlaylistsURLs       []string
	NewPlaylistFilename string
	EpgsURLs            []string
	NewEpgFilename      string

	AllowedGroups   []string
	BlockedGroups   map[string]struct{}
	BlockedChannels []string
	BlockedURLs     map[string]struct{}
	BlockedTags     []string

	CopyGroupTitle     bool
	NumDuplicates      int
	DuplicatesLocation DuplicatesLocation
	SortQualities      []string
	ChannelsTemplates  []Template
}

// ConfigError wraps a configuration-loading or validation failure with the
// path of the field or file involved, per the ConfigError error kind.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config: %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

type rawTemplate struct {
	Include []string          `toml:"i"`
	Exclude []string          `toml:"e"`
	Rename  string            `toml:"n"`
	Tags    map[string]string `toml:"t"`
}

type rawDocument struct {
	Resources struct {
		Playlists  []string `toml:"playlists"`
		NewPlaylist string  `toml:"new_playlist"`
		Epgs       []string `toml:"epgs"`
		NewEpg     string   `toml:"new_epg"`
	} `toml:"resources"`

	Groups struct {
		Allow []string `toml:"allow"`
		Block []string `toml:"block"`
	} `toml:"groups"`

	Urls struct {
		Block []string `toml:"block"`
	} `toml:"urls"`

	Channels struct {
		CopyGroupTitle     bool          `toml:"copy_group_title"`
		NumberOfDuplicates int           `toml:"number_of_duplicates"`
		DuplicatesLocation string        `toml:"duplicates_location"`
		SortQualities      []string      `toml:"sort_qualities"`
		TagsBlock          []string      `toml:"tags_block"`
		Block              []string      `toml:"block"`
		Allow              []rawTemplate `toml:"allow"`
	} `toml:"channels"`
}

// Load reads and validates the configuration document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	var raw rawDocument
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return fromRaw(&raw)
}

func fromRaw(raw *rawDocument) (*Config, error) {
	if len(raw.Resources.Playlists) == 0 {
		return nil, &ConfigError{Path: "resources.playlists", Err: fmt.Errorf("required, non-empty")}
	}
	if raw.Resources.NewPlaylist == "" {
		return nil, &ConfigError{Path: "resources.new_playlist", Err: fmt.Errorf("required, non-empty")}
	}
	if len(raw.Resources.Epgs) > 0 && raw.Resources.NewEpg == "" {
		return nil, &ConfigError{Path: "resources.new_epg", Err: fmt.Errorf("required when resources.epgs is present")}
	}

	cfg := &Config{
		PlaylistsURLs:       raw.Resources.Playlists,
		NewPlaylistFilename: raw.Resources.NewPlaylist,
		EpgsURLs:            raw.Resources.Epgs,
		NewEpgFilename:      raw.Resources.NewEpg,
		AllowedGroups:       raw.Groups.Allow,
		BlockedGroups:       toSet(raw.Groups.Block),
		BlockedChannels:     raw.Channels.Block,
		BlockedURLs:         toSet(raw.Urls.Block),
		BlockedTags:         raw.Channels.TagsBlock,
		CopyGroupTitle:      raw.Channels.CopyGroupTitle,
		SortQualities:       raw.Channels.SortQualities,
	}

	switch raw.Channels.DuplicatesLocation {
	case "inline":
		cfg.DuplicatesLocation = DuplicatesInline
		cfg.NumDuplicates = raw.Channels.NumberOfDuplicates
	case "append":
		cfg.DuplicatesLocation = DuplicatesAppend
		cfg.NumDuplicates = raw.Channels.NumberOfDuplicates
	default:
		// Anything else, including an absent key, is None; num_duplicates
		// is forced to 0 per the invariant duplicates_location=None => num_duplicates=0.
		cfg.DuplicatesLocation = DuplicatesNone
		cfg.NumDuplicates = 0
	}
	if cfg.NumDuplicates < 0 {
		return nil, &ConfigError{Path: "channels.number_of_duplicates", Err: fmt.Errorf("must be >= 0")}
	}

	for i, rt := range raw.Channels.Allow {
		if len(rt.Include) == 0 {
			return nil, &ConfigError{Path: fmt.Sprintf("channels.allow[%d].i", i), Err: fmt.Errorf("required, non-empty")}
		}
		tmpl := Template{
			Include: rt.Include,
			Exclude: rt.Exclude,
			NewName: rt.Rename,
		}
		keys := make([]string, 0, len(rt.Tags))
		for k := range rt.Tags {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			tmpl.Tags = append(tmpl.Tags, channel.TagPair{Name: k, Value: rt.Tags[k]})
		}
		cfg.ChannelsTemplates = append(cfg.ChannelsTemplates, tmpl)
	}

	return cfg, nil
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
