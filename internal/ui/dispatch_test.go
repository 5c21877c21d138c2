package ui

import (
	"sync"
	"testing"
	"time"
)

func TestLoopSerializesPosts(t *testing.T) {
	l := NewLoop()
	defer l.Stop()

	var mu sync.Mutex
	order := []int{}
	inFlight := 0
	maxInFlight := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		l.Post(func() {
			defer wg.Done()
			mu.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			order = append(order, i)
			inFlight--
			mu.Unlock()
		})
	}
	wg.Wait()

	if maxInFlight != 1 {
		t.Errorf("expected serialized execution, saw %d concurrent", maxInFlight)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("posts ran out of order: %v", order)
		}
	}
}

func TestLoopPostWait(t *testing.T) {
	l := NewLoop()
	defer l.Stop()

	ran := false
	if !l.PostWait(func() { ran = true }) {
		t.Fatal("PostWait returned false on live loop")
	}
	if !ran {
		t.Error("PostWait returned before fn ran")
	}
}

func TestLoopStopRejectsPosts(t *testing.T) {
	l := NewLoop()
	l.Stop()

	if l.Post(func() {}) {
		t.Error("Post accepted after Stop")
	}
	// Stop is idempotent
	l.Stop()
}

func TestLoopDrainsQueueOnStop(t *testing.T) {
	l := NewLoop()

	var mu sync.Mutex
	count := 0
	for i := 0; i < 20; i++ {
		l.Post(func() {
			mu.Lock()
			count++
			mu.Unlock()
			time.Sleep(time.Millisecond)
		})
	}
	l.Stop()

	mu.Lock()
	defer mu.Unlock()
	if count != 20 {
		t.Errorf("expected all 20 posted fns to run before Stop returned, got %d", count)
	}
}
