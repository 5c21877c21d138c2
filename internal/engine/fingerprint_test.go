package engine

import (
	"runtime"
	"strings"
	"testing"
)

func TestNewFingerprintPopulated(t *testing.T) {
	fp := NewFingerprint(false, false)
	if fp.UserAgent == "" || fp.Platform == "" {
		t.Error("user agent and platform should be set")
	}
	if fp.ScreenWidth == 0 || fp.ScreenHeight == 0 {
		t.Error("screen dimensions should not be zero")
	}
	if fp.WebGLVendor == "" || fp.WebGLRenderer == "" {
		t.Error("WebGL vendor/renderer should be set")
	}
	if fp.CanvasNoise <= 0 {
		t.Error("canvas noise should be positive")
	}
}

func TestFingerprintPoolMatchesHostOS(t *testing.T) {
	for i := 0; i < 30; i++ {
		fp := NewFingerprint(false, false)
		for _, p := range userAgents {
			if p.UA == fp.UserAgent && p.OS != runtime.GOOS {
				t.Fatalf("picked %s profile on %s host", p.OS, runtime.GOOS)
			}
		}
	}
}

func TestHostUserAgentsFallback(t *testing.T) {
	// Unknown GOOS falls back to the full pool rather than an empty one.
	pool := hostUserAgents("plan9")
	if len(pool) != len(userAgents) {
		t.Errorf("expected full pool fallback, got %d profiles", len(pool))
	}
}

func TestFingerprintVariation(t *testing.T) {
	fps := make([]*Fingerprint, 20)
	for i := range fps {
		fps[i] = NewFingerprint(false, false)
	}
	same := 0
	for i := 1; i < len(fps); i++ {
		if fps[i].ScreenWidth == fps[0].ScreenWidth && fps[i].PixelRatio == fps[0].PixelRatio &&
			fps[i].HardwareConcurrency == fps[0].HardwareConcurrency {
			same++
		}
	}
	if same == 19 {
		t.Error("all 20 fingerprints identical, randomization likely broken")
	}
}

func TestInjectJSSpoofMode(t *testing.T) {
	fp := NewFingerprint(false, false)
	js := fp.InjectJS()

	for _, want := range []string{
		"userAgent", "hardwareConcurrency", "devicePixelRatio",
		"RTCPeerConnection = undefined",
		"UNMASKED_VENDOR_WEBGL", "toDataURL",
	} {
		if !strings.Contains(js, want) {
			t.Errorf("spoof bundle missing %q", want)
		}
	}
	if strings.Contains(js, "getContext = function") {
		t.Error("unblocked profile should not stub getContext")
	}
}

func TestInjectJSBlockMode(t *testing.T) {
	fp := NewFingerprint(true, true)
	js := fp.InjectJS()

	if !strings.Contains(js, "getContext") {
		t.Fatal("blocking profile should stub getContext")
	}
	if strings.Contains(js, "UNMASKED_VENDOR_WEBGL") {
		t.Error("blocked WebGL should not carry vendor spoofing")
	}
	if strings.Contains(js, "toDataURL") {
		t.Error("blocked canvas should not carry noise injection")
	}
}

func TestInjectJSIndependentToggles(t *testing.T) {
	canvasOnly := NewFingerprint(true, false).InjectJS()
	if !strings.Contains(canvasOnly, "'2d'") {
		t.Error("canvas-only block should stub 2d contexts")
	}
	if !strings.Contains(canvasOnly, "UNMASKED_VENDOR_WEBGL") {
		t.Error("canvas-only block should keep WebGL spoofing")
	}

	webglOnly := NewFingerprint(false, true).InjectJS()
	if !strings.Contains(webglOnly, "'webgl'") {
		t.Error("webgl-only block should stub webgl contexts")
	}
	if !strings.Contains(webglOnly, "toDataURL") {
		t.Error("webgl-only block should keep canvas noise")
	}
}

func TestInjectJSEmbedsEscapedStrings(t *testing.T) {
	fp := NewFingerprint(false, false)
	fp.UserAgent = `Mozilla/5.0 "quoted"`
	js := fp.InjectJS()
	if !strings.Contains(js, `\"quoted\"`) {
		t.Error("user agent should be JSON-escaped in the bundle")
	}
}
