package engine

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

// mockHandle implements Handle for testing.
type mockHandle struct {
	mu     sync.Mutex
	name   string
	url    string
	html   string
	title  string
	jsLog  []string
	closed bool

	// onExecJS, when set, is called with each injected script.
	onExecJS func(js string)
}

func newMockHandle(name string) *mockHandle {
	return &mockHandle{name: name}
}

func (m *mockHandle) SetURL(url string) { m.mu.Lock(); m.url = url; m.mu.Unlock() }
func (m *mockHandle) LoadHTML(h string) { m.mu.Lock(); m.html = h; m.mu.Unlock() }
func (m *mockHandle) ExecJS(js string) {
	m.mu.Lock()
	m.jsLog = append(m.jsLog, js)
	fn := m.onExecJS
	m.mu.Unlock()
	if fn != nil {
		fn(js)
	}
}
func (m *mockHandle) SetTitle(t string) { m.mu.Lock(); m.title = t; m.mu.Unlock() }
func (m *mockHandle) Show()             {}
func (m *mockHandle) Hide()             {}
func (m *mockHandle) Focus()            {}
func (m *mockHandle) Reload()           {}
func (m *mockHandle) Close()            { m.mu.Lock(); m.closed = true; m.mu.Unlock() }
func (m *mockHandle) Name() string      { return m.name }

func (m *mockHandle) scripts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.jsLog))
	copy(out, m.jsLog)
	return out
}

func newTestManager() (*Manager, *[]*mockHandle, *[]CreatorOptions) {
	m := NewManager()
	handles := &[]*mockHandle{}
	opts := &[]CreatorOptions{}
	m.SetCreator(func(o CreatorOptions) Handle {
		h := newMockHandle(o.Name)
		*handles = append(*handles, h)
		*opts = append(*opts, o)
		return h
	})
	return m, handles, opts
}

func TestCreateRequiresCreator(t *testing.T) {
	m := NewManager()
	if _, err := m.Create("Tab", "https://example.com", Policy{AllowScripting: true}); err == nil {
		t.Fatal("expected error without a creator installed")
	}
	if m.Available() {
		t.Error("manager should not report available without creator")
	}
}

func TestCreateAppliesPolicyAtConstruction(t *testing.T) {
	m, _, opts := newTestManager()

	inst, err := m.Create("Tab", "https://example.com", Policy{AllowScripting: false, BlockCanvas: true})
	if err != nil {
		t.Fatal(err)
	}

	o := (*opts)[0]
	if o.EnableJS {
		t.Error("EnableJS should follow AllowScripting=false")
	}
	if o.UserAgent == "" {
		t.Error("spoofed user agent should be set")
	}
	if o.UserAgent != inst.Fingerprint.UserAgent {
		t.Error("window UA should match the instance fingerprint")
	}
	if !strings.Contains(o.InitJS, "__fsb_post") {
		t.Error("bridge bootstrap should be part of the init script")
	}
	if !inst.Policy.BlockCanvas {
		t.Error("policy should be recorded on the instance")
	}
}

func TestCreatePanelSkipsFingerprint(t *testing.T) {
	m, _, opts := newTestManager()

	inst, err := m.CreatePanel("Settings", "<html></html>")
	if err != nil {
		t.Fatal(err)
	}
	if inst.Fingerprint != nil {
		t.Error("panels should not carry a spoofed fingerprint")
	}
	if !inst.Panel {
		t.Error("panel flag should be set")
	}
	o := (*opts)[0]
	if !o.EnableJS {
		t.Error("panels need scripting for the bridge")
	}
	if o.HTML == "" {
		t.Error("panel document should be passed to the creator")
	}
}

func TestNavigateReinjectsFingerprint(t *testing.T) {
	m, handles, _ := newTestManager()
	inst, err := m.Create("Tab", "https://example.com", Policy{AllowScripting: true})
	if err != nil {
		t.Fatal(err)
	}

	h := (*handles)[0]
	before := len(h.scripts())
	if err := m.Navigate(inst.ID, "https://other.example"); err != nil {
		t.Fatal(err)
	}
	if h.url != "https://other.example" {
		t.Errorf("navigate should set the URL, got %s", h.url)
	}
	after := h.scripts()
	if len(after) <= before {
		t.Fatal("navigate should re-inject scripts")
	}
	if !strings.Contains(after[len(after)-1], "userAgent") {
		t.Error("re-injected script should be the fingerprint bundle")
	}
}

func TestCloseReleasesHandle(t *testing.T) {
	m, handles, _ := newTestManager()
	inst, _ := m.Create("Tab", "https://example.com", Policy{AllowScripting: true})

	if err := m.Close(inst.ID); err != nil {
		t.Fatal(err)
	}
	if !(*handles)[0].closed {
		t.Error("closing the instance should close the native handle")
	}
	if _, err := m.Get(inst.ID); err == nil {
		t.Error("closed instance should be gone from the manager")
	}
	if err := m.Close(inst.ID); err == nil {
		t.Error("double close should error")
	}
}

func TestDispatchEventDropsClosedInstances(t *testing.T) {
	m, _, _ := newTestManager()
	inst, _ := m.Create("Tab", "https://example.com", Policy{AllowScripting: true})

	var got []LifecycleEvent
	m.SetEventSink(func(ev LifecycleEvent) { got = append(got, ev) })

	m.DispatchEvent(LifecycleEvent{InstanceID: inst.ID, Kind: LoadFinished, URL: "https://example.com"})
	if len(got) != 1 {
		t.Fatalf("expected event for live instance, got %d", len(got))
	}

	m.Close(inst.ID)
	m.DispatchEvent(LifecycleEvent{InstanceID: inst.ID, Kind: LoadFinished})
	if len(got) != 1 {
		t.Error("events for closed instances must be dropped")
	}
}

var reqIDPattern = regexp.MustCompile(`req-\d+`)

// respondingHandle delivers canned evaluate-script results like a real
// webview would.
func respondingHandle(name string, data string, errMsg string) *mockHandle {
	h := newMockHandle(name)
	h.onExecJS = func(js string) {
		reqID := reqIDPattern.FindString(js)
		if reqID == "" {
			return
		}
		go GetCollector().Deliver(CallbackResult{
			RequestID: reqID,
			Data:      json.RawMessage(data),
			Error:     errMsg,
		})
	}
	return h
}

func TestCaptureSource(t *testing.T) {
	m := NewManager()
	m.SetCreator(func(o CreatorOptions) Handle {
		return respondingHandle(o.Name, `"<html><body>hi</body></html>"`, "")
	})
	inst, _ := m.Create("Tab", "https://example.com", Policy{AllowScripting: true})

	src, err := m.CaptureSource(context.Background(), inst.ID, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if src != "<html><body>hi</body></html>" {
		t.Errorf("unexpected source: %s", src)
	}
}

func TestCaptureSourceBadResult(t *testing.T) {
	m := NewManager()
	m.SetCreator(func(o CreatorOptions) Handle {
		return respondingHandle(o.Name, `42`, "")
	})
	inst, _ := m.Create("Tab", "https://example.com", Policy{AllowScripting: true})

	_, err := m.CaptureSource(context.Background(), inst.ID, time.Second)
	if err == nil {
		t.Fatal("expected error for non-string source result")
	}
	if !strings.Contains(err.Error(), "unexpected script result") {
		t.Errorf("wrong error class: %v", err)
	}
}

func TestCaptureSourceNoInstance(t *testing.T) {
	m := NewManager()
	_, err := m.CaptureSource(context.Background(), "missing", time.Second)
	if err == nil {
		t.Fatal("expected error for missing instance")
	}
}

func TestEvaluateTimeout(t *testing.T) {
	m, _, _ := newTestManager()
	inst, _ := m.Create("Tab", "https://example.com", Policy{AllowScripting: true})

	_, err := m.Evaluate(context.Background(), inst.ID, "return 1;", 50*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout with no responding handle")
	}
}
