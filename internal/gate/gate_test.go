package gate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
)

func TestScreenBypassesHTTPS(t *testing.T) {
	g := New(time.Second)
	got, outcome := g.Screen(context.Background(), "https://example.com")
	if outcome != Bypass {
		t.Fatalf("expected Bypass, got %v", outcome)
	}
	if got != "https://example.com" {
		t.Errorf("URL should pass through unchanged, got %s", got)
	}
}

func TestScreenBypassesNonHTTP(t *testing.T) {
	g := New(time.Second)
	_, outcome := g.Screen(context.Background(), "about:blank")
	if outcome != Bypass {
		t.Errorf("expected Bypass for non-http scheme, got %v", outcome)
	}
}

func TestReachableSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := New(time.Second)
	if !g.reachable(context.Background(), srv.URL) {
		t.Error("expected 200 target to be reachable")
	}
}

func TestReachableRejects404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	g := New(time.Second)
	if g.reachable(context.Background(), srv.URL) {
		t.Error("404 should not count as reachable")
	}
}

func TestReachableTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	g := NewWithClient(resty.New().SetTimeout(50 * time.Millisecond))
	start := time.Now()
	if g.reachable(context.Background(), srv.URL) {
		t.Error("slow target should not be reachable inside the timeout")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("probe did not honor the timeout bound")
	}
}

func TestScreenUpgradesViaProbe(t *testing.T) {
	// TLS test server stands in for the https variant; trust its cert.
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := resty.NewWithClient(srv.Client()).SetTimeout(time.Second)
	g := NewWithClient(client)

	// srv.URL is https://127.0.0.1:port; screen its http twin.
	httpURL := "http" + srv.URL[len("https"):]
	got, outcome := g.Screen(context.Background(), httpURL)
	if outcome != Upgraded {
		t.Fatalf("expected Upgraded, got %v", outcome)
	}
	if got != srv.URL {
		t.Errorf("expected %s, got %s", srv.URL, got)
	}
}

func TestScreenHoldsOnFailedProbe(t *testing.T) {
	g := NewWithClient(resty.New().SetTimeout(50 * time.Millisecond))

	// Port 9 (discard) refuses connections; the https probe fails fast.
	original := "http://127.0.0.1:9/page"
	got, outcome := g.Screen(context.Background(), original)
	if outcome != NeedsConfirm {
		t.Fatalf("expected NeedsConfirm, got %v", outcome)
	}
	if got != original {
		t.Errorf("pending URL must be the original insecure target, got %s", got)
	}
}
