package realtime

import (
	"sync"
	"time"
)

// Call statuses tracked per user. Transitions are client-driven and not
// validated against previous state; each participant's entry is an
// independent view of the call.
const (
	CallInitiating = "initiating"
	CallAccepted   = "accepted"
)

// Share status tracked per user.
const ShareActive = "sharing"

// CallEntry is one user's view of their active call.
type CallEntry struct {
	CallID    string
	PeerID    string
	Status    string
	UpdatedAt time.Time
}

// ShareEntry is one user's view of their active media share.
type ShareEntry struct {
	MediaID   string
	PeerID    string
	Kind      string
	Status    string
	UpdatedAt time.Time
}

// CallTable holds active call entries keyed by user id. Entries are
// overwritten by later call events from the same user; entries not touched
// within the TTL are evicted by Sweep so unanswered calls do not pile up.
type CallTable struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]CallEntry
}

func NewCallTable(ttl time.Duration) *CallTable {
	return &CallTable{ttl: ttl, entries: make(map[string]CallEntry)}
}

func (t *CallTable) Set(userID string, entry CallEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[userID] = entry
}

func (t *CallTable) Get(userID string) (CallEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[userID]
	return e, ok
}

func (t *CallTable) Delete(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, userID)
}

func (t *CallTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Sweep removes entries older than the TTL and returns how many were evicted.
func (t *CallTable) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for userID, entry := range t.entries {
		if now.Sub(entry.UpdatedAt) > t.ttl {
			delete(t.entries, userID)
			evicted++
		}
	}
	return evicted
}

// ShareTable holds active media share entries keyed by user id, with the
// same lifecycle as CallTable.
type ShareTable struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]ShareEntry
}

func NewShareTable(ttl time.Duration) *ShareTable {
	return &ShareTable{ttl: ttl, entries: make(map[string]ShareEntry)}
}

func (t *ShareTable) Set(userID string, entry ShareEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[userID] = entry
}

func (t *ShareTable) Get(userID string) (ShareEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[userID]
	return e, ok
}

func (t *ShareTable) Delete(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, userID)
}

func (t *ShareTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Sweep removes entries older than the TTL and returns how many were evicted.
func (t *ShareTable) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for userID, entry := range t.entries {
		if now.Sub(entry.UpdatedAt) > t.ttl {
			delete(t.entries, userID)
			evicted++
		}
	}
	return evicted
}
