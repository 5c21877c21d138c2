package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/dt10812/FlashSeekBrowse/internal/logging"
)

// Watch reloads the config file whenever it changes on disk and calls
// onChange with the freshly parsed result. Returns a stop function.
// Parse errors keep the previous config; they are logged and skipped.
func Watch(path string, onChange func(Config)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: editors replace the file on save, which drops
	// a watch registered on the file itself.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	base := filepath.Base(path)
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				c, err := LoadFile(path)
				if err != nil {
					logging.Warnf("config reload failed: %v", err)
					continue
				}
				onChange(c)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warnf("config watcher: %v", err)
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
