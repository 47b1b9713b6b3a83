package store

import (
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
)

// AuditEntry captures a single proposal-lifecycle event alongside the
// wall-clock time it was observed.
type AuditEntry struct {
	When  time.Time
	Event string
}

// AuditTrail appends timestamped lifecycle events using an injectable
// clock.Clock, so tests can supply clock.NewTestClock instead of
// depending on wall-clock time. This is audit metadata only -- nothing
// here participates in coordinator state transitions.
type AuditTrail struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries []AuditEntry
}

// NewAuditTrail returns an AuditTrail backed by c, or the real clock if c
// is nil.
func NewAuditTrail(c clock.Clock) *AuditTrail {
	if c == nil {
		c = clock.NewDefaultClock()
	}
	return &AuditTrail{clock: c}
}

// Record appends event, stamped with the current time.
func (a *AuditTrail) Record(event string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries = append(a.entries, AuditEntry{When: a.clock.Now(), Event: event})
}

// Entries returns a copy of every recorded entry, oldest first.
func (a *AuditTrail) Entries() []AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]AuditEntry, len(a.entries))
	copy(out, a.entries)
	return out
}
