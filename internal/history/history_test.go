package history

import (
	"testing"
)

func TestAppendPrepends(t *testing.T) {
	l := NewLog(nil)

	l.Append("https://one.example", "One")
	l.Append("https://two.example", "Two")

	got := l.Entries()
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].URL != "https://two.example" || got[0].Title != "Two" {
		t.Errorf("most recent entry should be first, got %+v", got[0])
	}
	if got[1].URL != "https://one.example" {
		t.Errorf("older entry should be second, got %+v", got[1])
	}
	if got[0].ID == got[1].ID {
		t.Error("entries should have distinct IDs")
	}
	if got[0].Time.IsZero() {
		t.Error("entry timestamp not set")
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	l := NewLog(nil)
	l.Append("https://a.example", "A")

	got := l.Entries()
	got[0].Title = "mutated"

	if l.Entries()[0].Title != "A" {
		t.Error("Entries must return a copy, not the backing slice")
	}
}

func TestClear(t *testing.T) {
	l := NewLog(nil)
	l.Append("https://a.example", "A")
	l.Clear()

	if l.Len() != 0 {
		t.Errorf("expected empty log after Clear, got %d", l.Len())
	}
	// Clearing an empty log is a no-op
	l.Clear()
}
