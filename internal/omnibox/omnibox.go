// Package omnibox turns free-text address-bar input into a navigable URL.
package omnibox

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/dt10812/FlashSeekBrowse/internal/settings"
)

// ErrInvalidInput is returned when input cannot be resolved to a URL.
// Callers surface it as a blocking alert and do not navigate.
var ErrInvalidInput = errors.New("not a navigable address")

// searchTemplates maps each engine to its query URL; %s receives the
// percent-encoded query.
var searchTemplates = map[settings.SearchEngine]string{
	settings.Google:     "https://www.google.com/search?q=%s",
	settings.DuckDuckGo: "https://duckduckgo.com/?q=%s",
	settings.Bing:       "https://www.bing.com/search?q=%s",
	settings.Brave:      "https://search.brave.com/search?q=%s",
}

// Resolver classifies address-bar input.
type Resolver struct {
	homeURL string
}

// NewResolver creates a resolver. Blank input resolves to homeURL.
func NewResolver(homeURL string) *Resolver {
	return &Resolver{homeURL: homeURL}
}

// SetHomeURL updates the home URL (config hot-reload).
func (r *Resolver) SetHomeURL(u string) {
	r.homeURL = u
}

// Resolve applies the classification rules in order, first match wins:
// blank input goes home; explicit http(s) input is parsed as-is; input
// that looks like a bare domain gets https:// prepended; everything else
// becomes a search query against the active engine.
func (r *Resolver) Resolve(input string, engine settings.SearchEngine) (string, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return r.homeURL, nil
	}

	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		parsed, err := url.Parse(text)
		if err != nil || parsed.Host == "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidInput, input)
		}
		return parsed.String(), nil
	}

	if looksLikeDomain(text) {
		return "https://" + text, nil
	}

	tmpl, ok := searchTemplates[engine]
	if !ok {
		tmpl = searchTemplates[settings.DuckDuckGo]
	}
	return fmt.Sprintf(tmpl, url.QueryEscape(text)), nil
}

// looksLikeDomain reports whether text is plausibly a bare domain:
// it contains a dot, no whitespace, and its hostname part is an IP
// literal or ends in a registry-known (ICANN) public suffix. "openai
// chat" and "v1.2" both fall through to search; "192.168.1.1" does not.
func looksLikeDomain(text string) bool {
	if strings.ContainsAny(text, " \t") || !strings.Contains(text, ".") {
		return false
	}

	host := text
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	if host == "" || strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") {
		return false
	}

	if net.ParseIP(host) != nil {
		return true
	}
	_, icann := publicsuffix.PublicSuffix(strings.ToLower(host))
	return icann
}
