package worker

import (
	"context"
	"log"
	"time"
)

// DefaultRetentionInterval is how often the retention cycle runs.
const DefaultRetentionInterval = 1 * time.Hour

// Cleaner deletes delivery records past the configured retention window.
// Satisfied by tracking.Service.
type Cleaner interface {
	CleanupOldDeliveryLogs(ctx context.Context) (int64, error)
}

// RetentionWorker periodically purges delivery records older than the
// retention window. Suppression and audit rows are never touched; those
// tables have their own lifecycles.
type RetentionWorker struct {
	cleaner  Cleaner
	interval time.Duration
}

// NewRetentionWorker creates a retention worker. A non-positive interval
// falls back to DefaultRetentionInterval.
func NewRetentionWorker(cleaner Cleaner, interval time.Duration) *RetentionWorker {
	if interval <= 0 {
		interval = DefaultRetentionInterval
	}
	return &RetentionWorker{cleaner: cleaner, interval: interval}
}

// Start begins the cleanup loop. It blocks until ctx is cancelled.
func (w *RetentionWorker) Start(ctx context.Context) {
	log.Printf("[RetentionCleanup] Starting (interval=%s)", w.interval)

	// Run once immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[RetentionCleanup] Stopping")
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

func (w *RetentionWorker) run(ctx context.Context) {
	start := time.Now()
	n, err := w.cleaner.CleanupOldDeliveryLogs(ctx)
	if err != nil {
		log.Printf("[RetentionCleanup] ERROR: %v", err)
		return
	}
	log.Printf("[RetentionCleanup] Cycle completed in %s (deleted=%d)",
		time.Since(start).Round(time.Millisecond), n)
}
