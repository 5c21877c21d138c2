// Package ui provides the single-goroutine dispatch loop that owns all
// shared browser state. Engine callbacks and probe results arrive on
// arbitrary goroutines and are re-posted here before touching tabs,
// history, downloads or settings.
package ui

import (
	"sync"
	"sync/atomic"

	"github.com/dt10812/FlashSeekBrowse/internal/crashlog"
)

// Loop executes posted functions one at a time on a dedicated goroutine.
// It is the process's stand-in for the platform main thread: state guarded
// by the loop needs no further locking.
type Loop struct {
	queue   chan func()
	stopped atomic.Bool
	done    chan struct{}
	once    sync.Once
}

// NewLoop starts a new dispatch loop.
func NewLoop() *Loop {
	l := &Loop{
		queue: make(chan func(), 128),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for fn := range l.queue {
		l.invoke(fn)
	}
}

// invoke runs one posted function. A panic in a handler is logged and
// the loop keeps running; losing one action beats losing the browser.
func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			crashlog.LogPanic("ui", r)
		}
	}()
	fn()
}

// Post schedules fn to run on the loop. Returns false after Stop.
func (l *Loop) Post(fn func()) bool {
	if l.stopped.Load() {
		return false
	}
	defer func() {
		// Queue may be closed concurrently by Stop.
		_ = recover()
	}()
	l.queue <- fn
	return true
}

// PostWait schedules fn and blocks until it has run.
// Must not be called from inside the loop itself.
func (l *Loop) PostWait(fn func()) bool {
	ran := make(chan struct{})
	ok := l.Post(func() {
		defer close(ran)
		fn()
	})
	if !ok {
		return false
	}
	<-ran
	return true
}

// Stop drains the queue and terminates the loop goroutine.
func (l *Loop) Stop() {
	l.once.Do(func() {
		l.stopped.Store(true)
		close(l.queue)
		<-l.done
	})
}
