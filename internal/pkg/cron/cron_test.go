package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRegisterAndList(t *testing.T) {
	s := New()
	s.Register(Job{
		Name:        "noop",
		Description: "does nothing",
		Interval:    time.Hour,
		Fn:          func(ctx context.Context) error { return nil },
	})

	items := s.List()
	if len(items) != 1 {
		t.Fatalf("got %d jobs, want 1", len(items))
	}
	if items[0].Name != "noop" || items[0].Status != StatusIdle {
		t.Errorf("item = %+v", items[0])
	}
	if items[0].NextDate == nil || items[0].NextDate.Before(time.Now()) {
		t.Errorf("NextDate = %v, want future", items[0].NextDate)
	}
	if items[0].LastRunAt != nil {
		t.Errorf("LastRunAt = %v, want nil before first run", items[0].LastRunAt)
	}
}

func TestTrigger(t *testing.T) {
	s := New()
	var ran atomic.Int32
	s.Register(Job{
		Name:     "counter",
		Interval: time.Hour,
		Fn: func(ctx context.Context) error {
			ran.Add(1)
			return nil
		},
	})

	if err := s.Trigger(context.Background(), "counter"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitFor(t, func() bool { return ran.Load() == 1 })

	if err := s.Trigger(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown job")
	}
}

func TestTriggerRecordsFailure(t *testing.T) {
	s := New()
	s.Register(Job{
		Name:     "broken",
		Interval: time.Hour,
		Fn:       func(ctx context.Context) error { return errors.New("boom") },
	})

	if err := s.Trigger(context.Background(), "broken"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitFor(t, func() bool {
		items := s.List()
		return len(items) == 1 && items[0].Status == StatusReject
	})

	items := s.List()
	if items[0].LastRunAt == nil {
		t.Error("LastRunAt not set after failed run")
	}
}

func TestStartRunsOnInterval(t *testing.T) {
	s := New()
	var ran atomic.Int32
	s.Register(Job{
		Name:     "fast",
		Interval: 10 * time.Millisecond,
		Fn: func(ctx context.Context) error {
			ran.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	waitFor(t, func() bool { return ran.Load() >= 2 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
