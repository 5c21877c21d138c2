// Package engine binds browser tabs and utility panels to native webview
// instances. The native side is abstracted behind the Handle interface; in
// desktop builds a Wails WebviewWindow implements it, in tests a mock does.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dt10812/FlashSeekBrowse/internal/devlog"
)

// ErrNoInstance is returned when an action targets a tab or panel that has
// no live engine instance.
var ErrNoInstance = errors.New("no engine instance")

// ErrBadResult is returned when injected script hands back a result of an
// unexpected shape (e.g. source capture yielding a non-string).
var ErrBadResult = errors.New("unexpected script result")

// Handle is the surface a native webview window must provide.
type Handle interface {
	SetURL(url string)
	LoadHTML(html string)
	ExecJS(js string)
	SetTitle(title string)
	Show()
	Hide()
	Focus()
	Reload()
	Close()
	Name() string
}

// CreatorOptions configures a new native webview instance.
type CreatorOptions struct {
	Name      string
	Title     string
	URL       string // empty when HTML is set
	HTML      string // raw document for utility panels
	Width     int
	Height    int
	EnableJS  bool
	UserAgent string
	InitJS    string // injected at document start on every frame
}

// Policy is the privacy configuration applied once, at instance creation.
// Settings changed afterwards affect only instances created later.
type Policy struct {
	AllowScripting bool
	BlockCanvas    bool
	BlockWebGL     bool
}

// EventKind identifies a navigation lifecycle callback.
type EventKind int

const (
	LoadStarted EventKind = iota
	LoadFinished
	LoadFailed
)

// LifecycleEvent is delivered by the native layer when a navigation
// starts, finishes or fails. Arrives on engine-owned goroutines; consumers
// re-post onto the UI loop.
type LifecycleEvent struct {
	InstanceID string
	Kind       EventKind
	URL        string
	Title      string
	Err        string
}

// Instance is one live webview bound to a tab or panel.
type Instance struct {
	ID          string
	Handle      Handle
	Policy      Policy
	Fingerprint *Fingerprint
	Panel       bool
	CreatedAt   time.Time
}

// Manager owns all live engine instances. The creator callback is
// installed by the desktop build; without it Create fails (headless).
type Manager struct {
	mu sync.RWMutex

	creator   func(opts CreatorOptions) Handle
	instances map[string]*Instance
	onEvent   func(LifecycleEvent)
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{instances: make(map[string]*Instance)}
}

// SetCreator installs the native window creation callback.
func (m *Manager) SetCreator(fn func(opts CreatorOptions) Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creator = fn
}

// SetEventSink installs the lifecycle event consumer (the tabs controller).
func (m *Manager) SetEventSink(fn func(LifecycleEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvent = fn
}

// Available reports whether native instances can be created.
func (m *Manager) Available() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creator != nil
}

// Create makes a page instance with the given construction-time policy
// and issues the initial load. The fingerprint bundle and bridge
// bootstrap are installed as document-start scripts and re-injected after
// each navigation (the JS context resets on load).
func (m *Manager) Create(title, url string, pol Policy) (*Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.creator == nil {
		return nil, fmt.Errorf("%w: engine requires desktop mode", ErrNoInstance)
	}

	id := "eng-" + uuid.NewString()
	fp := NewFingerprint(pol.BlockCanvas, pol.BlockWebGL)
	initJS := bootstrapJS() + fp.InjectJS()

	handle := m.creator(CreatorOptions{
		Name:      id,
		Title:     title,
		URL:       url,
		Width:     1200,
		Height:    800,
		EnableJS:  pol.AllowScripting,
		UserAgent: fp.UserAgent,
		InitJS:    initJS,
	})
	if handle == nil {
		return nil, fmt.Errorf("%w: native window creation failed", ErrNoInstance)
	}
	handle.ExecJS(initJS)

	inst := &Instance{
		ID:          id,
		Handle:      handle,
		Policy:      pol,
		Fingerprint: fp,
		CreatedAt:   time.Now(),
	}
	m.instances[id] = inst
	return inst, nil
}

// CreatePanel makes an ephemeral instance rendering a utility panel
// document. Panels are host-authored HTML: scripting stays on and no
// fingerprint spoofing is applied.
func (m *Manager) CreatePanel(title, html string) (*Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.creator == nil {
		return nil, fmt.Errorf("%w: engine requires desktop mode", ErrNoInstance)
	}

	id := "panel-" + uuid.NewString()
	handle := m.creator(CreatorOptions{
		Name:     id,
		Title:    title,
		HTML:     html,
		Width:    720,
		Height:   560,
		EnableJS: true,
		InitJS:   bootstrapJS(),
	})
	if handle == nil {
		return nil, fmt.Errorf("%w: native window creation failed", ErrNoInstance)
	}

	inst := &Instance{
		ID:        id,
		Handle:    handle,
		Panel:     true,
		CreatedAt: time.Now(),
	}
	m.instances[id] = inst
	return inst, nil
}

// Adopt registers an externally created window under a fixed ID so the
// message channel can address it. The chrome window is created by the
// shell with its own options and adopted here.
func (m *Manager) Adopt(id string, handle Handle) *Instance {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst := &Instance{
		ID:        id,
		Handle:    handle,
		Panel:     true,
		CreatedAt: time.Now(),
	}
	m.instances[id] = inst
	return inst
}

// Get returns an instance by ID.
func (m *Manager) Get(id string) (*Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoInstance, id)
	}
	return inst, nil
}

// Navigate issues a load on an instance and re-injects its scripts.
func (m *Manager) Navigate(id, url string) error {
	inst, err := m.Get(id)
	if err != nil {
		return err
	}
	inst.Handle.SetURL(url)
	if inst.Fingerprint != nil {
		inst.Handle.ExecJS(inst.Fingerprint.InjectJS())
	}
	return nil
}

// Close releases an instance and removes it from the manager.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoInstance, id)
	}
	inst.Handle.Close()
	delete(m.instances, id)
	return nil
}

// CloseAll releases every instance.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, inst := range m.instances {
		inst.Handle.Close()
		delete(m.instances, id)
	}
}

// Count returns the number of live instances.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.instances)
}

// Deliver hands a host-serialized payload to an instance's __fsb_receive
// hook. Panels render getHistory/getDownloads/getSource replies this way.
func (m *Manager) Deliver(id, kind string, payload any) error {
	inst, err := m.Get(id)
	if err != nil {
		return err
	}
	inst.Handle.ExecJS(deliverJS(kind, payload))
	return nil
}

// InstanceIDs returns the live instance IDs ordered by creation time.
func (m *Manager) InstanceIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.instances))
	for id := range m.instances {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.instances[ids[i]].CreatedAt.Before(m.instances[ids[j]].CreatedAt)
	})
	return ids
}

// DispatchEvent forwards a lifecycle event from the native layer to the
// installed sink. Events for instances already closed are dropped here so
// a removed tab cannot be resurrected.
func (m *Manager) DispatchEvent(ev LifecycleEvent) {
	m.mu.RLock()
	_, alive := m.instances[ev.InstanceID]
	sink := m.onEvent
	m.mu.RUnlock()

	if !alive || sink == nil {
		devlog.Printf("[Engine] dropping event for %s (alive=%v)\n", ev.InstanceID, alive)
		return
	}
	sink(ev)
}

// Evaluate runs script in an instance and waits for its JSON result.
func (m *Manager) Evaluate(ctx context.Context, id, code string, timeout time.Duration) (json.RawMessage, error) {
	inst, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	reqID := newRequestID()
	ch := GetCollector().Register(reqID)
	inst.Handle.ExecJS(evalJS(reqID, code))

	if timeout <= 0 {
		timeout = defaultTimeout
	}
	select {
	case result := <-ch:
		GetCollector().Cleanup(reqID)
		if result.Error != "" {
			return nil, fmt.Errorf("js error: %s", result.Error)
		}
		return result.Data, nil
	case <-time.After(timeout):
		GetCollector().Cleanup(reqID)
		return nil, fmt.Errorf("timeout waiting for script result")
	case <-ctx.Done():
		GetCollector().Cleanup(reqID)
		return nil, ctx.Err()
	}
}

// CaptureSource returns the instance's current document markup. A result
// that is not a JSON string reports ErrBadResult, distinct from a missing
// instance.
func (m *Manager) CaptureSource(ctx context.Context, id string, timeout time.Duration) (string, error) {
	raw, err := m.Evaluate(ctx, id, `return document.documentElement.outerHTML;`, timeout)
	if err != nil {
		return "", err
	}
	var src string
	if jsonErr := json.Unmarshal(raw, &src); jsonErr != nil {
		return "", fmt.Errorf("%w: source capture returned %s", ErrBadResult, truncate(string(raw), 40))
	}
	return src, nil
}

const defaultTimeout = 15 * time.Second

func newRequestID() string {
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
