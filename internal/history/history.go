// Package history keeps the cross-tab page-visit log. In-process only;
// nothing is persisted across restarts.
package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/dt10812/FlashSeekBrowse/internal/events"
)

// Entry is one completed page load. Immutable once appended.
type Entry struct {
	ID    string    `json:"id"`
	URL   string    `json:"url"`
	Title string    `json:"title"`
	Time  time.Time `json:"time"`
}

// Log is the visit log, most recent first. Confined to the UI dispatch
// loop like the rest of the shared browser state.
type Log struct {
	entries []Entry
	bus     *events.Subject
}

// NewLog creates an empty log.
func NewLog(bus *events.Subject) *Log {
	return &Log{bus: bus}
}

// Append prepends an entry for a successful page load.
func (l *Log) Append(url, title string) Entry {
	e := Entry{
		ID:    uuid.NewString(),
		URL:   url,
		Title: title,
		Time:  time.Now(),
	}
	l.entries = append([]Entry{e}, l.entries...)
	l.notify()
	return e
}

// Entries returns a copy of the log, most recent first.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Clear empties the log.
func (l *Log) Clear() {
	if len(l.entries) == 0 {
		return
	}
	l.entries = nil
	l.notify()
}

func (l *Log) notify() {
	if l.bus != nil {
		_ = events.Emit(l.bus, events.TopicHistoryChanged, l.Len())
	}
}
