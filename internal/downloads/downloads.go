// Package downloads tracks file downloads for the downloads panel.
// The registry is plain UI-loop-confined state; the fetcher runs in the
// background and reports through a callback that the owner re-posts onto
// the dispatch loop.
package downloads

import (
	"github.com/google/uuid"

	"github.com/dt10812/FlashSeekBrowse/internal/events"
)

// Entry is one tracked download.
type Entry struct {
	ID        string  `json:"id"`
	FileName  string  `json:"fileName"`
	SourceURL string  `json:"sourceURL"`
	Progress  float64 `json:"progress"` // 0.0 to 1.0
	Finished  bool    `json:"isFinished"`
	Error     string  `json:"error,omitempty"`
	LocalPath string  `json:"localPath,omitempty"`
}

// Registry holds download records in insertion order.
type Registry struct {
	order   []string
	entries map[string]*Entry
	bus     *events.Subject
}

// NewRegistry creates an empty registry.
func NewRegistry(bus *events.Subject) *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		bus:     bus,
	}
}

// Add registers a new download and returns its entry.
func (r *Registry) Add(fileName, sourceURL string) Entry {
	e := &Entry{
		ID:        uuid.NewString(),
		FileName:  fileName,
		SourceURL: sourceURL,
	}
	r.entries[e.ID] = e
	r.order = append(r.order, e.ID)
	r.notify()
	return *e
}

// SetProgress updates a download's progress, clamped to [0,1].
// Unknown IDs are ignored.
func (r *Registry) SetProgress(id string, progress float64) {
	e, ok := r.entries[id]
	if !ok || e.Finished {
		return
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	e.Progress = progress
	r.notify()
}

// Complete marks a download finished with its local file path.
func (r *Registry) Complete(id, localPath string) {
	e, ok := r.entries[id]
	if !ok {
		return
	}
	e.Progress = 1
	e.Finished = true
	e.LocalPath = localPath
	r.notify()
}

// Fail marks a download finished with an error.
func (r *Registry) Fail(id, errMsg string) {
	e, ok := r.entries[id]
	if !ok {
		return
	}
	e.Finished = true
	e.Error = errMsg
	r.notify()
}

// Get returns an entry by ID.
func (r *Registry) Get(id string) (Entry, bool) {
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Entries returns all entries in insertion order, by value.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.entries[id])
	}
	return out
}

func (r *Registry) notify() {
	if r.bus != nil {
		_ = events.Emit(r.bus, events.TopicDownloadsChanged, len(r.order))
	}
}
