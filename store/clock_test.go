package store

import (
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
)

func TestAuditTrailRecordsWithInjectedClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	testClock := clock.NewTestClock(start)
	trail := NewAuditTrail(testClock)

	trail.Record("proposal created")
	testClock.SetTime(start.Add(time.Minute))
	trail.Record("proposal finished")

	entries := trail.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].When.Equal(start) {
		t.Fatalf("expected first entry at %v, got %v", start, entries[0].When)
	}
	if !entries[1].When.Equal(start.Add(time.Minute)) {
		t.Fatalf("expected second entry one minute later, got %v", entries[1].When)
	}
	if entries[0].Event != "proposal created" || entries[1].Event != "proposal finished" {
		t.Fatalf("unexpected event text: %+v", entries)
	}
}
