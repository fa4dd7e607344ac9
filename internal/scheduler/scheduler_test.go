package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRun_InvalidSpec(t *testing.T) {
	if err := Run(context.Background(), "not a cron spec"); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestRun_SweepsUntilCancelled(t *testing.T) {
	var calls atomic.Int32
	s := SweeperFunc{Label: "test", Fn: func() int { calls.Add(1); return 1 }}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, "@every 1s", s) }()

	deadline := time.Now().Add(5 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if calls.Load() == 0 {
		t.Error("sweeper never ran")
	}
}

func TestSweepAll(t *testing.T) {
	var a, b int
	sweepAll([]Sweeper{
		SweeperFunc{Label: "a", Fn: func() int { a++; return 0 }},
		SweeperFunc{Label: "b", Fn: func() int { b++; return 3 }},
	})
	if a != 1 || b != 1 {
		t.Errorf("calls: a=%d b=%d", a, b)
	}
}
