package engine

import (
	"fmt"
	"math/rand"
	"runtime"
	"strings"
)

// Fingerprint is the spoofed telemetry profile for one instance. The
// user-agent is drawn from a pool matching the host OS so the spoof stays
// plausible against TLS/engine quirks the page can observe anyway.
type Fingerprint struct {
	UserAgent           string
	Platform            string
	Language            string
	Languages           []string
	ScreenWidth         int
	ScreenHeight        int
	ColorDepth          int
	PixelRatio          float64
	HardwareConcurrency int
	MaxTouchPoints      int
	WebGLVendor         string
	WebGLRenderer       string
	CanvasNoise         float64
	BlockCanvas         bool
	BlockWebGL          bool
}

var screenResolutions = [][2]int{
	{1920, 1080},
	{2560, 1440},
	{1366, 768},
	{1440, 900},
	{1536, 864},
	{1680, 1050},
	{1600, 900},
	{1920, 1200},
}

type uaProfile struct {
	UA       string
	Platform string
	OS       string // GOOS this profile is plausible on
}

var userAgents = []uaProfile{
	{
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.3 Safari/605.1.15",
		"MacIntel", "darwin",
	},
	{
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		"MacIntel", "darwin",
	},
	{
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
		"MacIntel", "darwin",
	},
	{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		"Win32", "windows",
	},
	{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
		"Win32", "windows",
	},
	{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36 Edg/130.0.0.0",
		"Win32", "windows",
	},
	{
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		"Linux x86_64", "linux",
	},
	{
		"Mozilla/5.0 (X11; Linux x86_64; rv:133.0) Gecko/20100101 Firefox/133.0",
		"Linux x86_64", "linux",
	},
}

var webGLRenderers = []struct {
	Vendor   string
	Renderer string
}{
	{"Google Inc. (Apple)", "ANGLE (Apple, ANGLE Metal Renderer: Apple M1 Pro, Unspecified Version)"},
	{"Google Inc. (Apple)", "ANGLE (Apple, ANGLE Metal Renderer: Apple M2, Unspecified Version)"},
	{"Google Inc. (NVIDIA)", "ANGLE (NVIDIA, NVIDIA GeForce RTX 3060 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (Intel)", "ANGLE (Intel, Intel(R) UHD Graphics 770 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (AMD)", "ANGLE (AMD, AMD Radeon RX 7600 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (Intel)", "ANGLE (Intel, Intel(R) Iris(R) Xe Graphics Direct3D11 vs_5_0 ps_5_0, D3D11)"},
}

var languagePools = [][]string{
	{"en-US", "en"},
	{"en-US", "en", "es"},
	{"en-GB", "en"},
	{"en-US", "en", "fr"},
	{"en-US", "en", "de"},
}

// hostUserAgents returns the UA profiles plausible on the given GOOS.
func hostUserAgents(goos string) []uaProfile {
	var out []uaProfile
	for _, p := range userAgents {
		if p.OS == goos {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return userAgents
	}
	return out
}

// NewFingerprint creates a randomized profile for the host OS, carrying
// the canvas/WebGL blocking flags current at instance creation.
func NewFingerprint(blockCanvas, blockWebGL bool) *Fingerprint {
	pool := hostUserAgents(runtime.GOOS)
	ua := pool[rand.Intn(len(pool))]
	screen := screenResolutions[rand.Intn(len(screenResolutions))]
	gl := webGLRenderers[rand.Intn(len(webGLRenderers))]
	lang := languagePools[rand.Intn(len(languagePools))]

	pixelRatios := []float64{1.0, 1.25, 1.5, 2.0}
	concurrencies := []int{4, 6, 8, 10, 12, 16}

	return &Fingerprint{
		UserAgent:           ua.UA,
		Platform:            ua.Platform,
		Language:            lang[0],
		Languages:           lang,
		ScreenWidth:         screen[0],
		ScreenHeight:        screen[1],
		ColorDepth:          24,
		PixelRatio:          pixelRatios[rand.Intn(len(pixelRatios))],
		HardwareConcurrency: concurrencies[rand.Intn(len(concurrencies))],
		MaxTouchPoints:      0,
		WebGLVendor:         gl.Vendor,
		WebGLRenderer:       gl.Renderer,
		CanvasNoise:         rand.Float64()*0.001 + 0.0001,
		BlockCanvas:         blockCanvas,
		BlockWebGL:          blockWebGL,
	}
}

// InjectJS returns the anti-fingerprinting bundle: navigator/screen
// overrides, RTCPeerConnection removal, and either context blocking or
// value spoofing for canvas/WebGL depending on the instance policy.
// Injected at document start and re-injected after navigations.
func (fp *Fingerprint) InjectJS() string {
	langArray := make([]string, len(fp.Languages))
	for i, l := range fp.Languages {
		langArray[i] = fmt.Sprintf("%q", l)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `(function(){
var nav = navigator;
Object.defineProperty(nav, 'userAgent', {get: function(){return %s;}});
Object.defineProperty(nav, 'platform', {get: function(){return %s;}});
Object.defineProperty(nav, 'language', {get: function(){return %s;}});
Object.defineProperty(nav, 'languages', {get: function(){return [%s];}});
Object.defineProperty(nav, 'hardwareConcurrency', {get: function(){return %d;}});
Object.defineProperty(nav, 'maxTouchPoints', {get: function(){return %d;}});

Object.defineProperty(screen, 'width', {get: function(){return %d;}});
Object.defineProperty(screen, 'height', {get: function(){return %d;}});
Object.defineProperty(screen, 'availWidth', {get: function(){return %d;}});
Object.defineProperty(screen, 'availHeight', {get: function(){return %d;}});
Object.defineProperty(screen, 'colorDepth', {get: function(){return %d;}});
Object.defineProperty(window, 'devicePixelRatio', {get: function(){return %f;}});

window.RTCPeerConnection = undefined;
window.webkitRTCPeerConnection = undefined;
`,
		jsonString(fp.UserAgent),
		jsonString(fp.Platform),
		jsonString(fp.Language),
		strings.Join(langArray, ","),
		fp.HardwareConcurrency,
		fp.MaxTouchPoints,
		fp.ScreenWidth,
		fp.ScreenHeight,
		fp.ScreenWidth,
		fp.ScreenHeight-40, // taskbar offset
		fp.ColorDepth,
		fp.PixelRatio,
	)

	if fp.BlockCanvas || fp.BlockWebGL {
		fmt.Fprintf(&b, `
var origGetContext = HTMLCanvasElement.prototype.getContext;
HTMLCanvasElement.prototype.getContext = function(type, attrs) {
  if (%v && (type === '2d' || type === 'bitmaprenderer')) return null;
  if (%v && (type === 'webgl' || type === 'webgl2' || type === 'experimental-webgl')) return null;
  return origGetContext.call(this, type, attrs);
};
`, fp.BlockCanvas, fp.BlockWebGL)
	}

	if !fp.BlockWebGL {
		fmt.Fprintf(&b, `
var origGetParam = WebGLRenderingContext.prototype.getParameter;
WebGLRenderingContext.prototype.getParameter = function(param) {
  var ext = this.getExtension('WEBGL_debug_renderer_info');
  if (ext) {
    if (param === ext.UNMASKED_VENDOR_WEBGL) return %s;
    if (param === ext.UNMASKED_RENDERER_WEBGL) return %s;
  }
  return origGetParam.call(this, param);
};
if (typeof WebGL2RenderingContext !== 'undefined') {
  var origGetParam2 = WebGL2RenderingContext.prototype.getParameter;
  WebGL2RenderingContext.prototype.getParameter = function(param) {
    var ext = this.getExtension('WEBGL_debug_renderer_info');
    if (ext) {
      if (param === ext.UNMASKED_VENDOR_WEBGL) return %s;
      if (param === ext.UNMASKED_RENDERER_WEBGL) return %s;
    }
    return origGetParam2.call(this, param);
  };
}
`, jsonString(fp.WebGLVendor), jsonString(fp.WebGLRenderer), jsonString(fp.WebGLVendor), jsonString(fp.WebGLRenderer))
	}

	if !fp.BlockCanvas {
		fmt.Fprintf(&b, `
var origToDataURL = HTMLCanvasElement.prototype.toDataURL;
HTMLCanvasElement.prototype.toDataURL = function(type, quality) {
  var ctx = this.getContext('2d');
  if (ctx) {
    var imgData = ctx.getImageData(0, 0, this.width, this.height);
    var noise = %f;
    for (var i = 0; i < imgData.data.length; i += 4) {
      imgData.data[i] = Math.min(255, Math.max(0, imgData.data[i] + Math.floor((Math.random() - 0.5) * noise * 255)));
    }
    ctx.putImageData(imgData, 0, 0);
  }
  return origToDataURL.call(this, type, quality);
};
`, fp.CanvasNoise)
	}

	b.WriteString("})();")
	return b.String()
}
