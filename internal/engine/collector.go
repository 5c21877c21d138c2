package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// CallbackResult is the JSON object posted back by evaluate-script
// wrappers: "fsb:cb:{requestId, data | error}".
type CallbackResult struct {
	RequestID string          `json:"requestId"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// CallbackCollector routes script results to the goroutine waiting on
// that request ID. Results for unknown IDs (late arrivals after a
// timeout cleanup) are dropped.
type CallbackCollector struct {
	mu      sync.Mutex
	pending map[string]chan CallbackResult
}

var (
	collectorOnce sync.Once
	collector     *CallbackCollector
)

// GetCollector returns the process-wide collector.
func GetCollector() *CallbackCollector {
	collectorOnce.Do(func() {
		collector = &CallbackCollector{pending: make(map[string]chan CallbackResult)}
	})
	return collector
}

// Register creates a waiting channel for a request ID.
func (c *CallbackCollector) Register(requestID string) <-chan CallbackResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan CallbackResult, 1)
	c.pending[requestID] = ch
	return ch
}

// Deliver hands a result to its waiter, if one is still registered.
func (c *CallbackCollector) Deliver(result CallbackResult) {
	c.mu.Lock()
	ch, ok := c.pending[result.RequestID]
	c.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- result:
	default:
	}
}

// Cleanup removes a pending request.
func (c *CallbackCollector) Cleanup(requestID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, requestID)
}

// WaitForResult blocks until a result arrives for requestID, the timeout
// elapses, or the context is cancelled.
func WaitForResult(ctx context.Context, requestID string, timeout time.Duration) (json.RawMessage, error) {
	c := GetCollector()
	c.mu.Lock()
	ch, ok := c.pending[requestID]
	if !ok {
		ch = make(chan CallbackResult, 1)
		c.pending[requestID] = ch
	}
	c.mu.Unlock()

	if timeout <= 0 {
		timeout = defaultTimeout
	}
	select {
	case result := <-ch:
		c.Cleanup(requestID)
		if result.Error != "" {
			return nil, fmt.Errorf("js error: %s", result.Error)
		}
		return result.Data, nil
	case <-time.After(timeout):
		c.Cleanup(requestID)
		return nil, fmt.Errorf("timeout waiting for script result")
	case <-ctx.Done():
		c.Cleanup(requestID)
		return nil, ctx.Err()
	}
}
