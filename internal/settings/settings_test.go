package settings

import (
	"testing"
)

func boolPtr(b bool) *bool       { return &b }
func strPtr(s string) *string    { return &s }

func TestApplyPartialUpdate(t *testing.T) {
	s := NewStore(nil)

	got := s.Apply(Patch{BlockCanvas: boolPtr(true)})

	if !got.BlockCanvas {
		t.Error("BlockCanvas should be true")
	}
	// Other fields untouched
	if !got.AllowScripting {
		t.Error("AllowScripting should keep its default")
	}
	if got.BlockWebGL {
		t.Error("BlockWebGL should keep its default")
	}
	if got.SearchEngine != DuckDuckGo {
		t.Errorf("SearchEngine should keep its default, got %s", got.SearchEngine)
	}
}

func TestApplyUnknownSearchEngineIgnored(t *testing.T) {
	s := NewStore(nil)

	got := s.Apply(Patch{SearchEngine: strPtr("altavista")})
	if got.SearchEngine != DuckDuckGo {
		t.Errorf("unknown engine should be ignored, got %s", got.SearchEngine)
	}

	got = s.Apply(Patch{SearchEngine: strPtr("google")})
	if got.SearchEngine != Google {
		t.Errorf("expected google, got %s", got.SearchEngine)
	}
}

func TestApplyEmptyPatchNoChange(t *testing.T) {
	s := NewStore(nil)
	before := s.Snapshot()
	after := s.Apply(Patch{})
	if before != after {
		t.Error("empty patch mutated settings")
	}
}

func TestParseSearchEngine(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"google", true},
		{"duckduckgo", true},
		{"bing", true},
		{"brave", true},
		{"", false},
		{"GOOGLE", false},
		{"yahoo", false},
	}
	for _, tc := range cases {
		_, ok := ParseSearchEngine(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseSearchEngine(%q) ok=%v, want %v", tc.in, ok, tc.ok)
		}
	}
}
