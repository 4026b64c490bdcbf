// Package jobs contains background loops that run alongside the HTTP server.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"eventreserve/internal/domain"
)

// Reconciler periodically restores agreement between event attendee counters
// and the reservation ledger. It repairs the partial-failure state a Leave or
// a compensated Join can leave behind when the counter update fails.
//
// Only drift older than the grace window is repaired. A reservation in flight
// holds a committed counter increment before its reservation row commits;
// rewinding that increment would reopen a slot the gate already granted. The
// grace must therefore exceed the service timeout bounding that window.
type Reconciler struct {
	eventRepo domain.EventRepository
	logger    *slog.Logger
	interval  time.Duration
	grace     time.Duration
	stopCh    chan struct{}
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewReconciler creates a reconciler that scans every interval and repairs
// drift that has persisted for at least grace.
func NewReconciler(eventRepo domain.EventRepository, logger *slog.Logger, interval, grace time.Duration) *Reconciler {
	if interval == 0 {
		interval = time.Minute
	}
	if grace == 0 {
		grace = 5 * time.Minute
	}
	return &Reconciler{
		eventRepo: eventRepo,
		logger:    logger,
		interval:  interval,
		grace:     grace,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the reconciliation loop.
func (r *Reconciler) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run()
	r.logger.Info("reconciler started", "interval", r.interval)
}

// Stop halts the loop and waits for an in-flight pass to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopCh)
	r.wg.Wait()
	r.logger.Info("reconciler stopped")
}

func (r *Reconciler) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(context.Background())
		case <-r.stopCh:
			return
		}
	}
}

// RunOnce performs a single reconciliation pass: find events whose counter
// has disagreed with their confirmed reservation count for longer than the
// grace window and rewrite the counter from the ledger. Each sync is
// idempotent, so overlapping passes are safe.
func (r *Reconciler) RunOnce(ctx context.Context) {
	ids, err := r.eventRepo.ListOutOfSync(ctx, time.Now().Add(-r.grace))
	if err != nil {
		r.logger.ErrorContext(ctx, "list out-of-sync events", "err", err)
		return
	}
	for _, id := range ids {
		if err := r.eventRepo.SyncAttendeeCount(ctx, id); err != nil {
			r.logger.ErrorContext(ctx, "sync attendee count", "event_id", id, "err", err)
			continue
		}
		r.logger.InfoContext(ctx, "attendee count reconciled", "event_id", id)
	}
}
