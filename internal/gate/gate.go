// Package gate implements the HTTPS-upgrade check for insecure navigations.
// It is a UX nudge, not a security boundary: the engine's own TLS stack
// decides what actually loads.
package gate

import (
	"context"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dt10812/FlashSeekBrowse/internal/devlog"
)

// Outcome is the result of screening a navigation target.
type Outcome int

const (
	// Bypass means the URL was not http and may load as-is.
	Bypass Outcome = iota
	// Upgraded means the https equivalent answered and should be loaded
	// instead of the original.
	Upgraded
	// NeedsConfirm means the probe failed; the original insecure URL is
	// held pending a user Allow/Deny decision.
	NeedsConfirm
)

// Gate probes http targets for a working https equivalent.
type Gate struct {
	client *resty.Client
}

// New creates a gate with a bounded probe timeout.
func New(timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Gate{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "*/*"),
	}
}

// NewWithClient creates a gate around an existing resty client.
func NewWithClient(client *resty.Client) *Gate {
	return &Gate{client: client}
}

// Screen classifies rawURL and, for http targets, probes the https
// variant. It blocks for up to the probe timeout, so call it off the UI
// loop and post the result back. The returned string is the URL to load
// when the outcome is Bypass or Upgraded, and the original insecure URL
// when it is NeedsConfirm.
func (g *Gate) Screen(ctx context.Context, rawURL string) (string, Outcome) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "http" {
		return rawURL, Bypass
	}

	u.Scheme = "https"
	upgraded := u.String()
	if g.reachable(ctx, upgraded) {
		devlog.Printf("[Gate] upgraded %s\n", rawURL)
		return upgraded, Upgraded
	}
	return rawURL, NeedsConfirm
}

// reachable reports whether the target answers with a non-error status.
// Redirects are followed; anything below 400 counts as success.
func (g *Gate) reachable(ctx context.Context, target string) bool {
	resp, err := g.client.R().SetContext(ctx).Get(target)
	if err != nil {
		return false
	}
	return resp.StatusCode() < 400
}
