// Package tabs owns the ordered tab list, the current-tab cursor and the
// navigation flow. All methods must run on the UI dispatch loop; the
// controller re-posts engine callbacks and probe results itself.
package tabs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dt10812/FlashSeekBrowse/internal/engine"
	"github.com/dt10812/FlashSeekBrowse/internal/events"
	"github.com/dt10812/FlashSeekBrowse/internal/gate"
	"github.com/dt10812/FlashSeekBrowse/internal/history"
	"github.com/dt10812/FlashSeekBrowse/internal/logging"
	"github.com/dt10812/FlashSeekBrowse/internal/omnibox"
	"github.com/dt10812/FlashSeekBrowse/internal/settings"
	"github.com/dt10812/FlashSeekBrowse/internal/ui"
)

// DefaultTitle is the display title before a page reports one.
const DefaultTitle = "New Tab"

// State tracks a tab's engine binding.
type State int

const (
	// Unattached: no engine instance yet; created lazily on first render.
	Unattached State = iota
	// Attached: engine instance bound; it persists for the tab's lifetime
	// so switching tabs never reloads.
	Attached
	// Closed: removed from the sequence, engine handle released.
	Closed
)

// Tab is one browsing context.
type Tab struct {
	ID      string
	URL     string
	Title   string
	State   State
	Loading bool

	inst *engine.Instance
}

// Alerter surfaces modal prompts. The desktop build backs it with native
// dialogs; alerts block until acknowledged, the insecure prompt resolves
// asynchronously through AllowPending/DenyPending.
type Alerter interface {
	Alert(title, message string)
	ConfirmInsecure(tabID, url string)
}

// Controller is the tab/navigation state machine.
type Controller struct {
	loop     *ui.Loop
	engines  *engine.Manager
	resolver *omnibox.Resolver
	gate     *gate.Gate
	hist     *history.Log
	store    *settings.Store
	bus      *events.Subject
	alerter  Alerter

	tabs    []*Tab
	current int

	// pendingInsecure holds the original http URL per tab while the
	// Allow/Deny prompt is outstanding.
	pendingInsecure map[string]string

	// addressText mirrors the current tab in the address bar; background
	// tab callbacks must not clobber it.
	addressText string

	// lastSource is the page markup captured by the explicit view-source
	// action. Not kept in sync with navigation.
	lastSource string
}

// Options wires a controller's collaborators.
type Options struct {
	Loop     *ui.Loop
	Engines  *engine.Manager
	Resolver *omnibox.Resolver
	Gate     *gate.Gate
	History  *history.Log
	Settings *settings.Store
	Bus      *events.Subject
	Alerter  Alerter
	HomeURL  string
}

// NewController creates the controller with one default tab. Engine
// lifecycle events are re-posted onto the loop before they touch state.
func NewController(opts Options) *Controller {
	c := &Controller{
		loop:            opts.Loop,
		engines:         opts.Engines,
		resolver:        opts.Resolver,
		gate:            opts.Gate,
		hist:            opts.History,
		store:           opts.Settings,
		bus:             opts.Bus,
		alerter:         opts.Alerter,
		pendingInsecure: make(map[string]string),
	}
	c.engines.SetEventSink(func(ev engine.LifecycleEvent) {
		c.post(func() { c.handleEvent(ev) })
	})
	c.AddTab(opts.HomeURL)
	return c
}

// post runs fn on the loop, or inline when no loop is configured (tests).
func (c *Controller) post(fn func()) {
	if c.loop != nil {
		c.loop.Post(fn)
		return
	}
	fn()
}

// AddTab appends a new unattached tab and makes it current.
func (c *Controller) AddTab(url string) *Tab {
	t := &Tab{
		ID:    uuid.NewString(),
		URL:   url,
		Title: DefaultTitle,
		State: Unattached,
	}
	c.tabs = append(c.tabs, t)
	c.current = len(c.tabs) - 1
	c.addressText = t.URL
	c.changed()
	return t
}

// Attach binds an engine instance to the tab on first render and issues
// the initial load. Settings are read here, once: later settings changes
// do not reach this instance.
func (c *Controller) Attach(tabID string) error {
	t := c.find(tabID)
	if t == nil {
		return fmt.Errorf("%w: tab %s", engine.ErrNoInstance, tabID)
	}
	if t.State == Attached {
		return nil
	}

	s := c.store.Snapshot()
	inst, err := c.engines.Create(t.Title, t.URL, engine.Policy{
		AllowScripting: s.AllowScripting,
		BlockCanvas:    s.BlockCanvas,
		BlockWebGL:     s.BlockWebGL,
	})
	if err != nil {
		return err
	}
	t.inst = inst
	t.State = Attached
	t.Loading = true
	c.changed()
	return nil
}

// CloseTab removes the tab at index, releasing its engine handle. The
// cursor decrements when the removed index is at or before it, floored
// at zero. The sequence is never left empty: closing the last tab
// creates a fresh default tab immediately.
func (c *Controller) CloseTab(index int) {
	if index < 0 || index >= len(c.tabs) {
		return
	}
	t := c.tabs[index]
	if t.inst != nil {
		if err := c.engines.Close(t.inst.ID); err != nil {
			logging.Warnf("close tab engine: %v", err)
		}
		t.inst = nil
	}
	t.State = Closed
	delete(c.pendingInsecure, t.ID)

	c.tabs = append(c.tabs[:index], c.tabs[index+1:]...)
	if index <= c.current && c.current > 0 {
		c.current--
	}

	if len(c.tabs) == 0 {
		home, _ := c.resolver.Resolve("", c.store.Snapshot().SearchEngine)
		c.AddTab(home)
		return
	}
	c.showCurrent()
	c.changed()
}

// CloseByInstance closes the tab bound to an engine instance. Native
// window-close events land here.
func (c *Controller) CloseByInstance(instanceID string) {
	for i, t := range c.tabs {
		if t.inst != nil && t.inst.ID == instanceID {
			c.CloseTab(i)
			return
		}
	}
}

// SelectTab moves the cursor and raises the selected tab's surface.
func (c *Controller) SelectTab(index int) {
	if index < 0 || index >= len(c.tabs) || index == c.current {
		return
	}
	c.current = index
	c.showCurrent()
	c.changed()
}

// showCurrent shows/focuses the current tab's window and hides the rest.
func (c *Controller) showCurrent() {
	cur := c.tabs[c.current]
	c.addressText = cur.URL
	for i, t := range c.tabs {
		if t.inst == nil {
			continue
		}
		if i == c.current {
			t.inst.Handle.Show()
			t.inst.Handle.Focus()
		} else {
			t.inst.Handle.Hide()
		}
	}
}

// Navigate resolves address-bar input and loads it in the current tab.
// Unparsable input raises a blocking alert and changes nothing. Insecure
// http targets go through the upgrade gate off-loop.
func (c *Controller) Navigate(input string) {
	c.NavigateInput(c.currentTab().ID, input)
}

// NavigateInput resolves raw input and loads it in a specific tab. Panel
// messages land here so a history-panel click navigates its owning tab.
func (c *Controller) NavigateInput(tabID, input string) {
	target, err := c.resolver.Resolve(input, c.store.Snapshot().SearchEngine)
	if err != nil {
		c.alerter.Alert("Invalid address", fmt.Sprintf("Cannot open %q: not a valid address or search.", input))
		return
	}
	c.NavigateTab(tabID, target)
}

// NavigateTab loads a resolved URL in a specific tab, independent of
// which tab is current (the bridge's navigate message uses this).
func (c *Controller) NavigateTab(tabID, target string) {
	t := c.find(tabID)
	if t == nil {
		return
	}
	go func() {
		finalURL, outcome := c.gate.Screen(context.Background(), target)
		c.post(func() { c.applyScreened(tabID, finalURL, outcome) })
	}()
}

func (c *Controller) applyScreened(tabID, finalURL string, outcome gate.Outcome) {
	t := c.find(tabID)
	if t == nil {
		// Tab closed while the probe was in flight.
		return
	}
	switch outcome {
	case gate.Bypass, gate.Upgraded:
		c.load(t, finalURL)
	case gate.NeedsConfirm:
		c.pendingInsecure[t.ID] = finalURL
		c.alerter.ConfirmInsecure(t.ID, finalURL)
	}
}

// AllowPending loads the held insecure URL for a tab and clears the
// pending state.
func (c *Controller) AllowPending(tabID string) {
	t := c.find(tabID)
	pending, ok := c.pendingInsecure[tabID]
	if t == nil || !ok {
		return
	}
	delete(c.pendingInsecure, tabID)
	c.load(t, pending)
}

// DenyPending discards the held insecure URL; nothing is loaded.
func (c *Controller) DenyPending(tabID string) {
	delete(c.pendingInsecure, tabID)
}

// PendingInsecure returns the held URL for a tab, if any.
func (c *Controller) PendingInsecure(tabID string) (string, bool) {
	u, ok := c.pendingInsecure[tabID]
	return u, ok
}

// load issues the actual engine load, attaching first if needed.
func (c *Controller) load(t *Tab, url string) {
	t.URL = url
	t.Loading = true
	if c.isCurrent(t) {
		c.addressText = url
	}

	if t.State != Attached {
		if err := c.Attach(t.ID); err != nil {
			t.Loading = false
			c.alerter.Alert("Engine unavailable", "This tab has no live page engine.")
			return
		}
		return
	}
	if err := c.engines.Navigate(t.inst.ID, url); err != nil {
		t.Loading = false
		c.alerter.Alert("Engine unavailable", "This tab has no live page engine.")
		return
	}
	c.changed()
}

// handleEvent applies an engine lifecycle callback. Runs on the loop.
// The tab is looked up by instance ID first so callbacks for closed tabs
// fall out harmlessly; shared current-tab UI fields are only touched when
// the event belongs to the current tab.
func (c *Controller) handleEvent(ev engine.LifecycleEvent) {
	t := c.findByInstance(ev.InstanceID)
	if t == nil {
		return
	}

	switch ev.Kind {
	case engine.LoadStarted:
		t.Loading = true
		if ev.URL != "" {
			t.URL = ev.URL
			if c.isCurrent(t) {
				c.addressText = ev.URL
			}
		}
	case engine.LoadFinished:
		t.Loading = false
		if ev.URL != "" {
			t.URL = ev.URL
		}
		if ev.Title != "" {
			t.Title = ev.Title
			t.inst.Handle.SetTitle(ev.Title)
		}
		if c.isCurrent(t) {
			c.addressText = t.URL
		}
		c.hist.Append(t.URL, t.Title)
	case engine.LoadFailed:
		t.Loading = false
		logging.Warnf("load failed for %s: %s", t.URL, ev.Err)
	}
	c.changed()
}

// Back navigates the current tab back in engine history.
func (c *Controller) Back() { c.historyStep("history.back();") }

// Forward navigates the current tab forward in engine history.
func (c *Controller) Forward() { c.historyStep("history.forward();") }

func (c *Controller) historyStep(js string) {
	t := c.currentTab()
	if t.inst == nil {
		c.alerter.Alert("Engine unavailable", "This tab has no live page engine.")
		return
	}
	t.inst.Handle.ExecJS(js)
}

// Reload reloads the current tab.
func (c *Controller) Reload() {
	t := c.currentTab()
	if t.inst == nil {
		c.alerter.Alert("Engine unavailable", "This tab has no live page engine.")
		return
	}
	t.inst.Handle.Reload()
}

// ViewSource captures the current tab's markup and stores it for the
// source panel. The capture waits for the page off the dispatch loop,
// like the gate probe; done, when non-nil, runs on the loop after a
// successful capture. A tab without an engine and a capture returning a
// non-string raise distinct alerts; neither crashes.
func (c *Controller) ViewSource(done func(src string)) {
	t := c.currentTab()
	if t.inst == nil {
		c.alerter.Alert("Engine unavailable", "This tab has no live page engine.")
		return
	}
	instID := t.inst.ID
	go func() {
		src, err := c.engines.CaptureSource(context.Background(), instID, 10*time.Second)
		c.post(func() { c.applyCaptured(src, err, done) })
	}()
}

func (c *Controller) applyCaptured(src string, err error, done func(string)) {
	if err != nil {
		if errors.Is(err, engine.ErrBadResult) {
			c.alerter.Alert("View source failed", "The page did not return its source text.")
		} else {
			c.alerter.Alert("Engine unavailable", "This tab has no live page engine.")
		}
		return
	}
	c.lastSource = src
	if done != nil {
		done(src)
	}
}

// LastSource returns the markup from the most recent view-source action.
func (c *Controller) LastSource() string {
	return c.lastSource
}

// Tabs returns a snapshot of the tab sequence.
func (c *Controller) Tabs() []Tab {
	out := make([]Tab, len(c.tabs))
	for i, t := range c.tabs {
		out[i] = *t
	}
	return out
}

// CurrentIndex returns the cursor position.
func (c *Controller) CurrentIndex() int {
	return c.current
}

// Current returns a snapshot of the current tab.
func (c *Controller) Current() Tab {
	return *c.currentTab()
}

// AddressText returns the shared address-bar text.
func (c *Controller) AddressText() string {
	return c.addressText
}

// FindByInstance resolves the tab bound to an engine instance, used by
// the bridge to attribute messages to their originating tab.
func (c *Controller) FindByInstance(instanceID string) (Tab, bool) {
	t := c.findByInstance(instanceID)
	if t == nil {
		return Tab{}, false
	}
	return *t, true
}

// TabIDByInstance returns the tab ID owning an instance.
func (c *Controller) TabIDByInstance(instanceID string) (string, bool) {
	t := c.findByInstance(instanceID)
	if t == nil {
		return "", false
	}
	return t.ID, true
}

func (c *Controller) currentTab() *Tab {
	return c.tabs[c.current]
}

func (c *Controller) isCurrent(t *Tab) bool {
	return c.tabs[c.current] == t
}

func (c *Controller) find(tabID string) *Tab {
	for _, t := range c.tabs {
		if t.ID == tabID {
			return t
		}
	}
	return nil
}

func (c *Controller) findByInstance(instanceID string) *Tab {
	for _, t := range c.tabs {
		if t.inst != nil && t.inst.ID == instanceID {
			return t
		}
	}
	return nil
}

func (c *Controller) changed() {
	if c.bus != nil {
		_ = events.Emit(c.bus, events.TopicTabsChanged, len(c.tabs))
	}
}
