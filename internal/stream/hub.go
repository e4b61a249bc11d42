// Package stream turns the session event log tail into push-based, resumable
// streams.
package stream

import "sync"

// Hub wakes stream readers when a session gains new events, so streaming is
// driven by appends instead of a fixed poll latency. Signals are coalesced:
// a subscriber channel holds at most one pending wake-up.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]bool
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[chan struct{}]bool),
	}
}

// Subscribe registers a wake-up channel for a session. The returned cancel
// func must be called when the reader goes away.
func (h *Hub) Subscribe(sessionID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan struct{}]bool)
	}
	h.subs[sessionID][ch] = true
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.subs[sessionID]; ok {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(h.subs, sessionID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Notify wakes every subscriber of a session. Never blocks: a reader that
// already has a pending signal will catch up on its next ReadSince anyway.
func (h *Hub) Notify(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[sessionID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
