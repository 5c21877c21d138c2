// Package panels holds the built-in HTML pages: the browser chrome
// (tab strip and toolbar) and the utility panels for settings, history,
// downloads and page source. Panels are ephemeral webview instances that
// pull their data over the message channel when they load.
package panels

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/dt10812/FlashSeekBrowse/internal/engine"
)

//go:embed html/chrome.html
var chromeHTML string

//go:embed html/settings.html
var settingsHTML string

//go:embed html/history.html
var historyHTML string

//go:embed html/downloads.html
var downloadsHTML string

//go:embed html/source.html
var sourceHTML string

// ErrUnknownKind is returned for a panel kind no page exists for.
var ErrUnknownKind = fmt.Errorf("unknown panel kind")

type page struct {
	title string
	html  string
}

var pages = map[string]page{
	"settings":  {title: "Settings", html: settingsHTML},
	"history":   {title: "History", html: historyHTML},
	"downloads": {title: "Downloads", html: downloadsHTML},
	"source":    {title: "Page Source", html: sourceHTML},
}

// Service opens panel windows, one live instance per kind. Opening an
// already-open panel focuses it instead of stacking duplicates.
type Service struct {
	engines *engine.Manager

	mu   sync.Mutex
	open map[string]string // kind -> instance ID
}

func NewService(engines *engine.Manager) *Service {
	return &Service{
		engines: engines,
		open:    make(map[string]string),
	}
}

// Open shows the panel for kind, creating its webview instance on first
// use and focusing the existing one otherwise.
func (s *Service) Open(kind string) error {
	p, ok := pages[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, live := s.open[kind]; live {
		if inst, err := s.engines.Get(id); err == nil {
			inst.Handle.Show()
			inst.Handle.Focus()
			return nil
		}
		// Instance vanished underneath us; fall through and recreate.
		delete(s.open, kind)
	}

	inst, err := s.engines.CreatePanel(p.title, p.html)
	if err != nil {
		return err
	}
	s.open[kind] = inst.ID
	return nil
}

// InstanceID returns the live instance for a kind, if that panel is
// open. Change subscribers use it to push fresh data without polling.
func (s *Service) InstanceID(kind string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.open[kind]
	return id, ok
}

// Closed drops the bookkeeping for a panel whose native window went
// away, so the next Open recreates it.
func (s *Service) Closed(instanceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for kind, id := range s.open {
		if id == instanceID {
			delete(s.open, kind)
			return
		}
	}
}

// ChromeHTML returns the markup for the browser's chrome window.
func ChromeHTML() string {
	return chromeHTML
}
