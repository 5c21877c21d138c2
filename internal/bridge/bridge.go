// Package bridge routes raw native-webview messages to browser state.
// Pages and panels post "fsb:msg:{json}" through the injected __fsb_post
// helper; evaluate-script results arrive as "fsb:cb:{json}". Everything a
// message touches runs on the UI dispatch loop.
package bridge

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dt10812/FlashSeekBrowse/internal/devlog"
	"github.com/dt10812/FlashSeekBrowse/internal/downloads"
	"github.com/dt10812/FlashSeekBrowse/internal/engine"
	"github.com/dt10812/FlashSeekBrowse/internal/history"
	"github.com/dt10812/FlashSeekBrowse/internal/notify"
	"github.com/dt10812/FlashSeekBrowse/internal/settings"
	"github.com/dt10812/FlashSeekBrowse/internal/tabs"
	"github.com/dt10812/FlashSeekBrowse/internal/ui"
)

// message is the envelope every page/panel message arrives in. Payload
// stays raw until the type is known; malformed payloads drop the message
// without side effects.
type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// PanelOpener opens a utility panel window by kind ("settings",
// "history", "downloads", "source").
type PanelOpener interface {
	Open(kind string) error
}

// Bridge dispatches decoded messages to their owning component.
type Bridge struct {
	loop   *ui.Loop
	tabs   *tabs.Controller
	store  *settings.Store
	hist   *history.Log
	dl     *downloads.Registry
	fetch  *downloads.Fetcher
	engine *engine.Manager
	panels PanelOpener
}

// Options wires a bridge's collaborators. Panels may be nil in tests.
type Options struct {
	Loop      *ui.Loop
	Tabs      *tabs.Controller
	Settings  *settings.Store
	History   *history.Log
	Downloads *downloads.Registry
	Fetcher   *downloads.Fetcher
	Engines   *engine.Manager
	Panels    PanelOpener
}

func New(opts Options) *Bridge {
	return &Bridge{
		loop:   opts.Loop,
		tabs:   opts.Tabs,
		store:  opts.Settings,
		hist:   opts.History,
		dl:     opts.Downloads,
		fetch:  opts.Fetcher,
		engine: opts.Engines,
		panels: opts.Panels,
	}
}

// HandleRaw accepts one raw string from the native message handler. It
// recognizes the callback and message prefixes and ignores everything
// else. Safe to call from any goroutine.
func (b *Bridge) HandleRaw(originID, raw string) {
	switch {
	case strings.HasPrefix(raw, engine.CallbackPrefix):
		var res engine.CallbackResult
		if err := json.Unmarshal([]byte(strings.TrimPrefix(raw, engine.CallbackPrefix)), &res); err != nil {
			devlog.Printf("[Bridge] undecodable callback from %s: %v\n", originID, err)
			return
		}
		engine.GetCollector().Deliver(res)
	case strings.HasPrefix(raw, engine.MsgPrefix):
		b.post(func() {
			b.dispatch(originID, strings.TrimPrefix(raw, engine.MsgPrefix))
		})
	default:
		devlog.Printf("[Bridge] unrecognized message from %s: %.60s\n", originID, raw)
	}
}

func (b *Bridge) post(fn func()) {
	if b.loop != nil {
		b.loop.Post(fn)
		return
	}
	fn()
}

// dispatch decodes and applies one message. Runs on the loop. Messages
// that fail to decode, carry no type, or carry an unknown type are
// dropped without mutating any state.
func (b *Bridge) dispatch(originID, body string) {
	var msg message
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		devlog.Printf("[Bridge] undecodable message from %s: %v\n", originID, err)
		return
	}

	switch msg.Type {
	case "console":
		b.relayConsole(originID, msg.Payload)
	case "pageEvent":
		b.pageEvent(originID, msg.Payload)
	case "settings":
		b.applySettings(msg.Payload)
	case "getSettings":
		b.deliver(originID, "settings", b.store.Snapshot())
	case "getHistory":
		b.deliver(originID, "history", b.hist.Entries())
	case "clearHistory":
		b.hist.Clear()
		b.deliver(originID, "history", b.hist.Entries())
	case "getDownloads":
		b.deliver(originID, "downloads", b.dl.Entries())
	case "download":
		b.startDownload(stringPayload(msg.Payload, "url"))
	case "getSource":
		b.deliver(originID, "source", b.tabs.LastSource())
	case "navigate":
		b.navigate(originID, msg.Payload)

	case "omnibox":
		b.tabs.Navigate(stringPayload(msg.Payload, "text"))
	case "newTab":
		b.newTab(stringPayload(msg.Payload, "url"))
	case "closeTab":
		if idx, ok := intPayload(msg.Payload, "index"); ok {
			b.tabs.CloseTab(idx)
		}
	case "selectTab":
		if idx, ok := intPayload(msg.Payload, "index"); ok {
			b.selectTab(idx)
		}
	case "back":
		b.tabs.Back()
	case "forward":
		b.tabs.Forward()
	case "reload":
		b.tabs.Reload()
	case "allowInsecure":
		b.tabs.AllowPending(b.pendingTarget(msg.Payload))
	case "denyInsecure":
		b.tabs.DenyPending(b.pendingTarget(msg.Payload))
	case "viewSource":
		b.viewSource()
	case "openPanel":
		b.openPanel(stringPayload(msg.Payload, "kind"))
	case "getTabs":
		b.deliver(originID, "tabs", b.tabsSnapshot())

	case "":
		// Envelope without a type; nothing to do.
	default:
		devlog.Printf("[Bridge] unknown message type %q from %s\n", msg.Type, originID)
	}
}

// relayConsole forwards a page console line to the host log. The payload
// is the pre-joined argument string built by the injected relay.
func (b *Bridge) relayConsole(originID string, payload json.RawMessage) {
	var line string
	if err := json.Unmarshal(payload, &line); err != nil {
		return
	}
	devlog.Printf("[JS %s] %s\n", shortID(originID), line)
}

// pageEvent translates an injected-script load report into an engine
// lifecycle event. The manager drops reports from instances that have
// already been closed.
func (b *Bridge) pageEvent(originID string, payload json.RawMessage) {
	var ev struct {
		Kind  string `json:"kind"`
		URL   string `json:"url"`
		Title string `json:"title"`
		Err   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		return
	}
	var kind engine.EventKind
	switch ev.Kind {
	case "started":
		kind = engine.LoadStarted
	case "finished":
		kind = engine.LoadFinished
	case "failed":
		kind = engine.LoadFailed
	default:
		return
	}
	b.engine.DispatchEvent(engine.LifecycleEvent{
		InstanceID: originID,
		Kind:       kind,
		URL:        ev.URL,
		Title:      ev.Title,
		Err:        ev.Err,
	})
}

// applySettings applies a partial update; absent fields stay untouched
// and unknown search engines are ignored by the store.
func (b *Bridge) applySettings(payload json.RawMessage) {
	var p settings.Patch
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}
	b.store.Apply(p)
}

// startDownload registers the entry up front so the panel shows it at
// zero progress, then streams the file off-loop.
func (b *Bridge) startDownload(rawURL string) {
	if rawURL == "" || b.fetch == nil {
		return
	}
	name := downloads.FileNameFor(rawURL)
	entry := b.dl.Add(name, rawURL)
	go b.fetch.Fetch(context.Background(), rawURL, func(u downloads.Update) {
		// The fetcher calls back from its own goroutine; the registry
		// is loop-confined, so marshal the write back onto the loop.
		b.post(func() {
			switch {
			case u.Err != nil:
				b.dl.Fail(entry.ID, u.Err.Error())
				notify.Send("Download failed", name)
			case u.Done:
				b.dl.Complete(entry.ID, u.LocalPath)
				notify.Send("Download complete", name)
			default:
				b.dl.SetProgress(entry.ID, u.Progress)
			}
		})
	})
}

// navigate loads a URL in the message's originating tab; messages from
// panels or the chrome page fall through to the current tab.
func (b *Bridge) navigate(originID string, payload json.RawMessage) {
	target := stringPayload(payload, "url")
	if target == "" {
		return
	}
	if tabID, ok := b.tabs.TabIDByInstance(originID); ok {
		b.tabs.NavigateInput(tabID, target)
		return
	}
	b.tabs.Navigate(target)
}

func (b *Bridge) newTab(url string) {
	t := b.tabs.AddTab(url)
	if err := b.tabs.Attach(t.ID); err != nil {
		devlog.Printf("[Bridge] attach new tab: %v\n", err)
	}
}

func (b *Bridge) selectTab(idx int) {
	b.tabs.SelectTab(idx)
	cur := b.tabs.Current()
	if cur.State == tabs.Unattached {
		if err := b.tabs.Attach(cur.ID); err != nil {
			devlog.Printf("[Bridge] attach selected tab: %v\n", err)
		}
	}
}

// pendingTarget resolves which tab an allow/deny decision applies to; a
// payload without a tabId means the current tab.
func (b *Bridge) pendingTarget(payload json.RawMessage) string {
	if id := stringPayload(payload, "tabId"); id != "" {
		return id
	}
	return b.tabs.Current().ID
}

func (b *Bridge) viewSource() {
	b.tabs.ViewSource(func(string) {
		b.openPanel("source")
	})
}

func (b *Bridge) openPanel(kind string) {
	if b.panels == nil || kind == "" {
		return
	}
	if err := b.panels.Open(kind); err != nil {
		devlog.Printf("[Bridge] open panel %s: %v\n", kind, err)
	}
}

// tabSummary is the shape the chrome page renders the tab strip from.
type tabSummary struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Loading bool   `json:"loading"`
	Pending bool   `json:"pendingInsecure"`
}

type tabsSnapshot struct {
	Tabs    []tabSummary `json:"tabs"`
	Current int          `json:"current"`
	Address string       `json:"address"`
}

func (b *Bridge) tabsSnapshot() tabsSnapshot {
	all := b.tabs.Tabs()
	out := tabsSnapshot{
		Tabs:    make([]tabSummary, len(all)),
		Current: b.tabs.CurrentIndex(),
		Address: b.tabs.AddressText(),
	}
	for i, t := range all {
		_, pending := b.tabs.PendingInsecure(t.ID)
		out.Tabs[i] = tabSummary{
			ID:      t.ID,
			URL:     t.URL,
			Title:   t.Title,
			Loading: t.Loading,
			Pending: pending,
		}
	}
	return out
}

func (b *Bridge) deliver(originID, kind string, payload any) {
	if err := b.engine.Deliver(originID, kind, payload); err != nil {
		devlog.Printf("[Bridge] deliver %s to %s: %v\n", kind, originID, err)
	}
}

func stringPayload(payload json.RawMessage, key string) string {
	// Accept both a bare JSON string and an object field.
	var s string
	if json.Unmarshal(payload, &s) == nil {
		return s
	}
	var m map[string]json.RawMessage
	if json.Unmarshal(payload, &m) != nil {
		return ""
	}
	if raw, ok := m[key]; ok && json.Unmarshal(raw, &s) == nil {
		return s
	}
	return ""
}

func intPayload(payload json.RawMessage, key string) (int, bool) {
	var n int
	if json.Unmarshal(payload, &n) == nil {
		return n, true
	}
	var m map[string]json.RawMessage
	if json.Unmarshal(payload, &m) != nil {
		return 0, false
	}
	if raw, ok := m[key]; ok && json.Unmarshal(raw, &n) == nil {
		return n, true
	}
	return 0, false
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
