// Package settings holds the process-wide browser preferences. The store
// is confined to the UI dispatch loop: every mutation happens there, so no
// locking is needed. Readers elsewhere take value snapshots.
package settings

import (
	"github.com/dt10812/FlashSeekBrowse/internal/events"
)

// SearchEngine selects the query template the omnibox falls back to.
type SearchEngine string

const (
	Google     SearchEngine = "google"
	DuckDuckGo SearchEngine = "duckduckgo"
	Bing       SearchEngine = "bing"
	Brave      SearchEngine = "brave"
)

// ParseSearchEngine maps a wire string onto a known engine.
func ParseSearchEngine(s string) (SearchEngine, bool) {
	switch SearchEngine(s) {
	case Google, DuckDuckGo, Bing, Brave:
		return SearchEngine(s), true
	}
	return "", false
}

// Settings is the user-tweakable privacy and search configuration.
// Script/canvas/WebGL policy is read once at engine-instance creation, so
// changes apply to tabs opened afterwards, not to live instances.
type Settings struct {
	AllowScripting bool         `json:"allowScripting"`
	BlockCanvas    bool         `json:"blockCanvas"`
	BlockWebGL     bool         `json:"blockWebGL"`
	SearchEngine   SearchEngine `json:"searchEngine"`
}

// Defaults returns the settings applied at first start.
func Defaults() Settings {
	return Settings{
		AllowScripting: true,
		BlockCanvas:    false,
		BlockWebGL:     false,
		SearchEngine:   DuckDuckGo,
	}
}

// Patch is a partial settings update; nil fields are left untouched.
type Patch struct {
	AllowScripting *bool   `json:"allowScripting"`
	BlockCanvas    *bool   `json:"blockCanvas"`
	BlockWebGL     *bool   `json:"blockWebGL"`
	SearchEngine   *string `json:"searchEngine"`
}

// Store owns the current Settings value and notifies subscribers on change.
type Store struct {
	current Settings
	bus     *events.Subject
}

// NewStore creates a store seeded with defaults.
func NewStore(bus *events.Subject) *Store {
	return &Store{current: Defaults(), bus: bus}
}

// Snapshot returns the current settings by value.
func (s *Store) Snapshot() Settings {
	return s.current
}

// Apply merges a partial update into the current settings. Unknown search
// engine names leave the field unchanged. Emits a change event when
// anything actually changed.
func (s *Store) Apply(p Patch) Settings {
	next := s.current
	if p.AllowScripting != nil {
		next.AllowScripting = *p.AllowScripting
	}
	if p.BlockCanvas != nil {
		next.BlockCanvas = *p.BlockCanvas
	}
	if p.BlockWebGL != nil {
		next.BlockWebGL = *p.BlockWebGL
	}
	if p.SearchEngine != nil {
		if engine, ok := ParseSearchEngine(*p.SearchEngine); ok {
			next.SearchEngine = engine
		}
	}

	if next != s.current {
		s.current = next
		if s.bus != nil {
			_ = events.Emit(s.bus, events.TopicSettingsChanged, next)
		}
	}
	return next
}

// SetSearchEngine sets the default engine (used when config reloads).
func (s *Store) SetSearchEngine(engine SearchEngine) {
	name := string(engine)
	s.Apply(Patch{SearchEngine: &name})
}
