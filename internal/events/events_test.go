package events

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSubscribeReceivesTypedValue(t *testing.T) {
	s := NewSubject()
	defer Complete(s)

	got := make(chan int, 1)
	sub := Subscribe(s, TopicHistoryChanged, func(_ context.Context, n int) error {
		got <- n
		return nil
	})
	defer sub.Unsubscribe()

	if err := Emit(s, TopicHistoryChanged, 7); err != nil {
		t.Fatalf("emit: %v", err)
	}
	select {
	case n := <-got:
		if n != 7 {
			t.Fatalf("expected 7, got %d", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("handler never ran")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := NewSubject(WithSyncDelivery())
	defer Complete(s)

	var mu sync.Mutex
	calls := 0
	sub := Subscribe(s, TopicDownloadsChanged, func(_ context.Context, _ int) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})

	if err := Emit(s, TopicDownloadsChanged, 1); err != nil {
		t.Fatalf("emit: %v", err)
	}
	waitForCount(t, &mu, &calls, 1)

	sub.Unsubscribe()
	if err := Emit(s, TopicDownloadsChanged, 2); err != nil {
		t.Fatalf("emit: %v", err)
	}
	// Give a stray delivery time to land before asserting.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected 1 call after unsubscribe, got %d", calls)
	}
}

// Sync delivery must hand events to a subscriber in emit order; the
// desktop panel-push subscribers depend on that so a stale snapshot
// can never overwrite a fresher one.
func TestSyncDeliveryPreservesEmitOrder(t *testing.T) {
	s := NewSubject(WithSyncDelivery())
	defer Complete(s)

	var mu sync.Mutex
	var seen []int
	count := 0
	sub := Subscribe(s, TopicHistoryChanged, func(_ context.Context, n int) error {
		mu.Lock()
		seen = append(seen, n)
		count++
		mu.Unlock()
		return nil
	})
	defer sub.Unsubscribe()

	const total = 50
	for i := 0; i < total; i++ {
		if err := Emit(s, TopicHistoryChanged, i); err != nil {
			t.Fatalf("emit %d: %v", i, err)
		}
	}
	waitForCount(t, &mu, &count, total)

	mu.Lock()
	defer mu.Unlock()
	for i, n := range seen {
		if n != i {
			t.Fatalf("event %d arrived at position %d", n, i)
		}
	}
}

func TestTypeMismatchReachesErrorHook(t *testing.T) {
	var mu sync.Mutex
	hooked := 0
	s := NewSubject(WithSyncDelivery(), WithErrorHook(func(_, _ string, _ error) {
		mu.Lock()
		hooked++
		mu.Unlock()
	}))
	defer Complete(s)

	sub := Subscribe(s, TopicSettingsChanged, func(_ context.Context, _ int) error {
		return nil
	})
	defer sub.Unsubscribe()

	if err := Emit(s, TopicSettingsChanged, "not an int"); err != nil {
		t.Fatalf("emit: %v", err)
	}
	waitForCount(t, &mu, &hooked, 1)
}

func TestCompleteIsIdempotent(t *testing.T) {
	s := NewSubject()
	Complete(s)
	Complete(s)
	Complete(nil)
}

func waitForCount(t *testing.T, mu *sync.Mutex, n *int, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		got := *n
		mu.Unlock()
		if got >= want {
			if got != want {
				t.Fatalf("expected %d deliveries, got %d", want, got)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d deliveries", want)
}
