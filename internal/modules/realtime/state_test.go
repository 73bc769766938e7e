package realtime

import (
	"testing"
	"time"
)

func TestCallTableSweep(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	table := NewCallTable(2 * time.Minute)

	table.Set("stale", CallEntry{CallID: "c1", UpdatedAt: base})
	table.Set("fresh", CallEntry{CallID: "c2", UpdatedAt: base.Add(90 * time.Second)})

	if evicted := table.Sweep(base.Add(3 * time.Minute)); evicted != 1 {
		t.Fatalf("evicted = %d, want 1", evicted)
	}
	if _, ok := table.Get("stale"); ok {
		t.Fatal("stale entry should be evicted")
	}
	if _, ok := table.Get("fresh"); !ok {
		t.Fatal("fresh entry should survive")
	}
}

func TestCallTableSweepBoundary(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	table := NewCallTable(time.Minute)
	table.Set("edge", CallEntry{UpdatedAt: base})

	// Exactly at the TTL is not yet stale.
	if evicted := table.Sweep(base.Add(time.Minute)); evicted != 0 {
		t.Fatalf("evicted = %d, want 0 at exact TTL", evicted)
	}
	if evicted := table.Sweep(base.Add(time.Minute + time.Nanosecond)); evicted != 1 {
		t.Fatalf("evicted = %d, want 1 past TTL", evicted)
	}
}

func TestShareTableSweep(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	table := NewShareTable(5 * time.Minute)

	table.Set("u1", ShareEntry{MediaID: "m1", UpdatedAt: base})
	table.Set("u2", ShareEntry{MediaID: "m2", UpdatedAt: base.Add(4 * time.Minute)})

	if evicted := table.Sweep(base.Add(6 * time.Minute)); evicted != 1 {
		t.Fatalf("evicted = %d, want 1", evicted)
	}
	if table.Len() != 1 {
		t.Fatalf("len = %d, want 1", table.Len())
	}
}

func TestTableOverwriteAndDelete(t *testing.T) {
	table := NewCallTable(time.Minute)

	table.Set("u", CallEntry{CallID: "first"})
	table.Set("u", CallEntry{CallID: "second"})

	entry, ok := table.Get("u")
	if !ok || entry.CallID != "second" {
		t.Fatalf("entry = %+v, want second", entry)
	}

	table.Delete("u")
	table.Delete("u") // idempotent
	if table.Len() != 0 {
		t.Fatalf("len = %d, want 0", table.Len())
	}
}
