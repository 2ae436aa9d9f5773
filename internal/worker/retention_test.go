package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingCleaner struct {
	runs atomic.Int64
}

func (c *countingCleaner) CleanupOldDeliveryLogs(context.Context) (int64, error) {
	c.runs.Add(1)
	return 0, nil
}

func TestRetentionWorker_RunsImmediatelyOnStart(t *testing.T) {
	cleaner := &countingCleaner{}
	w := NewRetentionWorker(cleaner, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for cleaner.runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected a cleanup run immediately on start")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
}

func TestRetentionWorker_TicksOnInterval(t *testing.T) {
	cleaner := &countingCleaner{}
	w := NewRetentionWorker(cleaner, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	w.Start(ctx)

	if runs := cleaner.runs.Load(); runs < 3 {
		t.Errorf("expected at least 3 runs, got %d", runs)
	}
}

func TestNewRetentionWorker_DefaultInterval(t *testing.T) {
	w := NewRetentionWorker(&countingCleaner{}, 0)
	if w.interval != DefaultRetentionInterval {
		t.Errorf("expected default interval, got %s", w.interval)
	}
}
