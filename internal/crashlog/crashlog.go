// Package crashlog records recovered panics to a file under the user
// cache directory so a crash in one dispatch-loop handler leaves a trace
// without taking the browser down.
package crashlog

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

var (
	mu   sync.Mutex
	path string
)

func init() {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	path = filepath.Join(dir, "flashseek", "crash.log")
}

// LogPanic records a recovered panic with a stack trace. Always prints
// to stderr for immediate visibility; the file write is best-effort.
func LogPanic(module string, r any) {
	stack := make([]byte, 8192)
	n := runtime.Stack(stack, false)
	entry := fmt.Sprintf("%s [PANIC] %s: %v\n%s\n",
		time.Now().Format(time.RFC3339), module, r, stack[:n])

	fmt.Fprint(os.Stderr, entry)

	mu.Lock()
	defer mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(entry)
}

// Path returns the crash log location.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return path
}
