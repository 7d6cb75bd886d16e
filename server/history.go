package main

import (
	"time"

	"github.com/juju/clock"
)

// HistoryRetention is how long a reply stays available for duplicate
// suppression. A duplicate arriving later than this is executed again.
const HistoryRetention = 5 * time.Minute

// RequestKey identifies a (clientAddr, requestID) pair for deduplication.
// Request ids are only unique per client endpoint.
type RequestKey struct {
	Addr      string
	RequestID uint32
}

type historyEntry struct {
	reply      []byte
	insertedAt time.Time
}

// RequestHistory caches encoded replies for at-most-once semantics.
type RequestHistory struct {
	clock     clock.Clock
	retention time.Duration
	entries   map[RequestKey]historyEntry
}

func NewRequestHistory(clk clock.Clock) *RequestHistory {
	return &RequestHistory{
		clock:     clk,
		retention: HistoryRetention,
		entries:   make(map[RequestKey]historyEntry),
	}
}

// Lookup returns the reply previously stored for key.
func (h *RequestHistory) Lookup(key RequestKey) ([]byte, bool) {
	entry, ok := h.entries[key]
	if !ok {
		return nil, false
	}
	return entry.reply, true
}

// Store records reply for key and then evicts entries older than the
// retention window.
func (h *RequestHistory) Store(key RequestKey, reply []byte) {
	h.entries[key] = historyEntry{reply: reply, insertedAt: h.clock.Now()}
	h.EvictOlderThan(h.retention)
}

// EvictOlderThan drops entries inserted more than window ago and returns how
// many were dropped.
func (h *RequestHistory) EvictOlderThan(window time.Duration) int {
	now := h.clock.Now()
	evicted := 0
	for key, entry := range h.entries {
		if now.Sub(entry.insertedAt) > window {
			delete(h.entries, key)
			evicted++
		}
	}
	return evicted
}

func (h *RequestHistory) Len() int {
	return len(h.entries)
}
