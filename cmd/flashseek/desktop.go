//go:build desktop

package cli

import (
	"context"
	"fmt"
	"os"
	goruntime "runtime"
	"strings"

	"github.com/wailsapp/wails/v3/pkg/application"
	wailsevents "github.com/wailsapp/wails/v3/pkg/events"

	"github.com/dt10812/FlashSeekBrowse/internal/bridge"
	"github.com/dt10812/FlashSeekBrowse/internal/config"
	"github.com/dt10812/FlashSeekBrowse/internal/devlog"
	"github.com/dt10812/FlashSeekBrowse/internal/downloads"
	"github.com/dt10812/FlashSeekBrowse/internal/engine"
	"github.com/dt10812/FlashSeekBrowse/internal/events"
	"github.com/dt10812/FlashSeekBrowse/internal/gate"
	"github.com/dt10812/FlashSeekBrowse/internal/history"
	"github.com/dt10812/FlashSeekBrowse/internal/logging"
	"github.com/dt10812/FlashSeekBrowse/internal/omnibox"
	"github.com/dt10812/FlashSeekBrowse/internal/panels"
	"github.com/dt10812/FlashSeekBrowse/internal/settings"
	"github.com/dt10812/FlashSeekBrowse/internal/tabs"
	"github.com/dt10812/FlashSeekBrowse/internal/ui"
)

// chromeWindowName is the adopted instance ID of the shell window.
const chromeWindowName = "chrome"

// RunDesktop opens the browser shell. Extra args are treated as initial
// navigation targets, one tab each.
func RunDesktop(args []string) {
	if !verbose {
		logging.Disable()
	}

	c := ShellConfig
	loop := ui.NewLoop()
	defer loop.Stop()

	// Sync delivery keeps change notifications in emit order; the
	// handlers below re-post onto the dispatch loop before touching
	// loop-owned state.
	bus := events.NewSubject(events.WithSyncDelivery())
	defer events.Complete(bus)

	store := settings.NewStore(bus)
	seedSettings(store)

	hist := history.NewLog(bus)
	registry := downloads.NewRegistry(bus)
	fetcher := downloads.NewFetcher(c.DownloadDir)
	engines := engine.NewManager()
	panelSvc := panels.NewService(engines)

	// Declared up front so the window-creation and raw-message closures
	// can capture them; assigned once construction reaches them.
	var (
		br   *bridge.Bridge
		ctrl *tabs.Controller
	)

	wailsApp := application.New(application.Options{
		Name: "FlashSeek",
		Mac: application.MacOptions{
			ApplicationShouldTerminateAfterLastWindowClosed: true,
		},
		Linux: application.LinuxOptions{
			ProgramName: "flashseek",
		},
		// Pages and panels talk to the host through the platform message
		// handler ("fsb:msg:"/"fsb:cb:" prefixes). This path bypasses CORS
		// and mixed-content blocking that would stop an HTTP round trip.
		RawMessageHandler: func(win application.Window, message string, _ *application.OriginInfo) {
			if br == nil {
				return
			}
			br.HandleRaw(win.Name(), message)
		},
		OnShutdown: func() {
			devlog.Printf("[Desktop] shutting down\n")
		},
	})

	engines.SetCreator(func(opts engine.CreatorOptions) engine.Handle {
		devlog.Printf("[Desktop] creating window name=%s url=%s\n", opts.Name, opts.URL)
		winOpts := application.WebviewWindowOptions{
			Name:      opts.Name,
			Title:     opts.Title,
			Width:     opts.Width,
			Height:    opts.Height,
			MinWidth:  400,
			MinHeight: 300,
			// Applied after every navigation, so the bootstrap and
			// fingerprint bundle survive page loads.
			JS: opts.InitJS,
		}
		switch {
		case opts.HTML != "":
			winOpts.HTML = opts.HTML
		case goruntime.GOOS == "windows":
			// WebView2 only applies the JS option to HTML-mode windows.
			// Create blank, then navigate; the injected script persists
			// across navigations once registered.
			winOpts.HTML = " "
		default:
			winOpts.URL = opts.URL
		}
		w := wailsApp.Window.NewWithOptions(winOpts)
		if goruntime.GOOS == "windows" && opts.HTML == "" && opts.URL != "" {
			w.SetURL(opts.URL)
		}

		w.RegisterHook(wailsevents.Common.WindowClosing, func(_ *application.WindowEvent) {
			name := opts.Name
			loop.Post(func() {
				if strings.HasPrefix(name, "panel-") {
					panelSvc.Closed(name)
					_ = engines.Close(name)
					return
				}
				ctrl.CloseByInstance(name)
			})
		})
		return wailsHandle{win: w}
	})

	// The shell window: tab strip, toolbar, insecure-load banner. Created
	// outside the manager and adopted so panel replies can address it.
	chromeWindow := wailsApp.Window.NewWithOptions(application.WebviewWindowOptions{
		Name:      chromeWindowName,
		Title:     "FlashSeek",
		Width:     c.Window.Width,
		Height:    120,
		MinWidth:  600,
		MinHeight: 90,
		HTML:      panels.ChromeHTML(),
		JS:        engine.BootstrapJS(),
	})
	engines.Adopt(chromeWindowName, wailsHandle{win: chromeWindow})

	loop.PostWait(func() {
		ctrl = tabs.NewController(tabs.Options{
			Loop:     loop,
			Engines:  engines,
			Resolver: omnibox.NewResolver(c.HomeURL),
			Gate:     gate.New(c.ProbeTimeout),
			History:  hist,
			Settings: store,
			Bus:      bus,
			Alerter:  wailsAlerter{},
			HomeURL:  c.HomeURL,
		})
	})

	br = bridge.New(bridge.Options{
		Loop:      loop,
		Tabs:      ctrl,
		Settings:  store,
		History:   hist,
		Downloads: registry,
		Fetcher:   fetcher,
		Engines:   engines,
		Panels:    panelSvc,
	})

	// Push fresh data to open panels when the underlying state changes,
	// so a visible history or downloads panel tracks the session live.
	pushToPanel := func(kind string, payload func() any) {
		if id, open := panelSvc.InstanceID(kind); open {
			if err := engines.Deliver(id, kind, payload()); err != nil {
				devlog.Printf("[Desktop] push %s: %v\n", kind, err)
			}
		}
	}
	histSub := events.Subscribe(bus, events.TopicHistoryChanged, func(_ context.Context, _ int) error {
		loop.Post(func() { pushToPanel("history", func() any { return hist.Entries() }) })
		return nil
	})
	defer histSub.Unsubscribe()
	dlSub := events.Subscribe(bus, events.TopicDownloadsChanged, func(_ context.Context, _ int) error {
		loop.Post(func() { pushToPanel("downloads", func() any { return registry.Entries() }) })
		return nil
	})
	defer dlSub.Unsubscribe()
	setSub := events.Subscribe(bus, events.TopicSettingsChanged, func(_ context.Context, s settings.Settings) error {
		loop.Post(func() { pushToPanel("settings", func() any { return s }) })
		return nil
	})
	defer setSub.Unsubscribe()

	// Live-reload the privacy switches when an on-disk config changes.
	// Construction-time values (home URL, probe timeout) still require a
	// restart, matching how settings reach engine instances.
	if path := os.Getenv("FSB_CONFIG"); path != "" {
		stop, err := config.Watch(path, func(fresh config.Config) {
			loop.Post(func() {
				allow := fresh.AllowScripting
				p := settings.Patch{AllowScripting: &allow}
				if _, ok := settings.ParseSearchEngine(fresh.SearchEngine); ok {
					eng := fresh.SearchEngine
					p.SearchEngine = &eng
				}
				store.Apply(p)
			})
		})
		if err != nil {
			logging.Warnf("config watch: %v", err)
		} else {
			defer stop()
		}
	}

	// Closing the shell window ends the session.
	chromeWindow.RegisterHook(wailsevents.Common.WindowClosing, func(_ *application.WindowEvent) {
		engines.CloseAll()
		safeQuit(wailsApp)
	})

	// Open the initial tab (and one per CLI argument) before the event
	// loop starts so the home page is loading when the shell appears.
	loop.PostWait(func() {
		if err := ctrl.Attach(ctrl.Current().ID); err != nil {
			logging.Warnf("initial tab: %v", err)
		}
		for _, arg := range args {
			ctrl.AddTab("")
			ctrl.Navigate(arg)
		}
	})

	fmt.Printf("  FlashSeek %s\n", AppVersion)
	fmt.Printf("  Home: %s\n", c.HomeURL)
	fmt.Printf("  Downloads: %s\n", c.DownloadDir)

	// Run the native event loop on the main thread (blocks until quit).
	if err := wailsApp.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Desktop error: %v\n", err)
	}
}

// seedSettings carries the config-file values into the runtime settings
// store. Later panel edits go through the store only; config is not
// written back.
func seedSettings(store *settings.Store) {
	c := ShellConfig
	allow := c.AllowScripting
	p := settings.Patch{AllowScripting: &allow}
	if _, ok := settings.ParseSearchEngine(c.SearchEngine); ok {
		p.SearchEngine = &c.SearchEngine
	}
	store.Apply(p)
}

// wailsAlerter backs modal prompts with native dialogs. The insecure
// Allow/Deny prompt itself lives in the chrome banner, which polls tab
// state; surfacing it here is just a log line.
type wailsAlerter struct{}

func (wailsAlerter) Alert(title, message string) {
	dialog := application.InfoDialog()
	dialog.SetTitle(title)
	dialog.SetMessage(message)
	dialog.Show()
}

func (wailsAlerter) ConfirmInsecure(tabID, url string) {
	devlog.Printf("[Desktop] insecure load held for tab %s: %s\n", tabID, url)
}

// safeQuit calls App.Quit() with recovery from Wails v3 alpha panics
// during teardown.
func safeQuit(app *application.App) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "[Desktop] recovered from quit panic: %v\n", r)
			os.Exit(0)
		}
	}()
	app.Quit()
}

// wailsHandle adapts a Wails WebviewWindow to the engine.Handle interface.
type wailsHandle struct {
	win *application.WebviewWindow
}

func (w wailsHandle) SetURL(url string) {
	devlog.Printf("[Desktop] SetURL(%s)\n", url)
	w.win.SetURL(url)
}

func (w wailsHandle) LoadHTML(html string) {
	w.win.SetHTML(html)
}

func (w wailsHandle) ExecJS(js string) {
	preview := js
	if len(preview) > 80 {
		preview = preview[:80] + "..."
	}
	devlog.Printf("[Desktop] ExecJS(%s)\n", preview)
	w.win.ExecJS(js)
}

func (w wailsHandle) SetTitle(title string) { w.win.SetTitle(title) }
func (w wailsHandle) Show()                 { w.win.Show() }
func (w wailsHandle) Hide()                 { w.win.Hide() }
func (w wailsHandle) Focus()                { w.win.Focus() }
func (w wailsHandle) Reload()               { w.win.Reload() }
func (w wailsHandle) Close()                { w.win.Close() }
func (w wailsHandle) Name() string          { return w.win.Name() }
