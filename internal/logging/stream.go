package logging

import (
	"context"
	"sync"
	"time"
)

// LogEvent represents a line published to the streaming hub, either a
// converter output line or a request status transition.
type LogEvent struct {
	Sequence  uint64    `json:"seq"`
	Timestamp time.Time `json:"ts"`
	Level     string    `json:"level"`
	Message   string    `json:"msg"`
	RequestID int64     `json:"request_id,omitempty"`
	Stage     string    `json:"stage,omitempty"`
}

// StreamHub stores recent log events and wakes waiters when new events
// arrive. It is the data source for terminal-panel style consumers.
type StreamHub struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []LogEvent
	nextSeq  uint64
}

// NewStreamHub constructs a bounded in-memory log fan-out buffer.
func NewStreamHub(capacity int) *StreamHub {
	if capacity <= 0 {
		capacity = 512
	}
	h := &StreamHub{capacity: capacity}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// Publish appends a new log event to the hub.
func (h *StreamHub) Publish(evt LogEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.nextSeq++
	evt.Sequence = h.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if len(h.buffer) == h.capacity {
		copy(h.buffer, h.buffer[1:])
		h.buffer = h.buffer[:h.capacity-1]
	}
	h.buffer = append(h.buffer, evt)
	h.cond.Broadcast()
	h.mu.Unlock()
}

// Fetch returns all events with sequence greater than since. When wait is
// true, Fetch blocks until at least one event is available or the context
// ends.
func (h *StreamHub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]LogEvent, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}

	cancelWait := make(chan struct{})
	if wait && ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				h.cond.Broadcast()
			case <-cancelWait:
			}
		}()
	}
	defer close(cancelWait)

	h.mu.Lock()
	defer h.mu.Unlock()

	for {
		events, next := h.snapshotLocked(since, limit)
		if len(events) > 0 || !wait {
			return events, next, nil
		}
		if ctx != nil && ctx.Err() != nil {
			return nil, since, ctx.Err()
		}
		h.cond.Wait()
	}
}

func (h *StreamHub) snapshotLocked(since uint64, limit int) ([]LogEvent, uint64) {
	next := since
	var events []LogEvent
	for _, evt := range h.buffer {
		if evt.Sequence <= since {
			continue
		}
		events = append(events, evt)
		next = evt.Sequence
		if len(events) == limit {
			break
		}
	}
	return events, next
}
