package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prxgr4mmer/price-resolver/internal/ports"
)

// Refresher drives periodic bulk refreshes of all tracked symbols and a
// slower maintenance tick that prunes old history and removes orphaned
// cache entries.
type Refresher struct {
	refresh       ports.RefreshService
	maintenance   ports.MaintenanceService
	interval      time.Duration
	pruneInterval time.Duration
	retentionDays int
	logger        *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRefresher creates a new background refresher
func NewRefresher(
	refresh ports.RefreshService,
	maintenance ports.MaintenanceService,
	interval time.Duration,
	pruneInterval time.Duration,
	retentionDays int,
	logger *slog.Logger,
) *Refresher {
	return &Refresher{
		refresh:       refresh,
		maintenance:   maintenance,
		interval:      interval,
		pruneInterval: pruneInterval,
		retentionDays: retentionDays,
		logger:        logger.With("component", "refresher"),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start begins the refresh and maintenance loops
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	r.logger.Info("starting refresher",
		"interval", r.interval.String(),
		"prune_interval", r.pruneInterval.String(),
	)

	refreshTicker := time.NewTicker(r.interval)
	defer refreshTicker.Stop()

	pruneTicker := time.NewTicker(r.pruneInterval)
	defer pruneTicker.Stop()

	// Initial refresh
	r.runRefresh(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher context cancelled")
			r.finish()
			return ctx.Err()

		case <-r.stopCh:
			r.logger.Info("refresher stopped")
			r.finish()
			return nil

		case <-refreshTicker.C:
			r.runRefresh(ctx)

		case <-pruneTicker.C:
			r.runMaintenance(ctx)
		}
	}
}

func (r *Refresher) runRefresh(ctx context.Context) {
	// Bound each cycle so a hung upstream cannot stall the loop
	cycleTimeout := r.interval / 2
	if cycleTimeout < 30*time.Second {
		cycleTimeout = 30 * time.Second
	}

	cycleCtx, cancel := context.WithTimeout(ctx, cycleTimeout)
	defer cancel()

	if err := r.refresh.RefreshAll(cycleCtx); err != nil {
		r.logger.Error("refresh cycle failed", "error", err)
	}
}

func (r *Refresher) runMaintenance(ctx context.Context) {
	maintCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if _, err := r.maintenance.PruneHistory(maintCtx, r.retentionDays); err != nil {
		r.logger.Error("history prune failed", "error", err)
	}

	if _, err := r.maintenance.CleanupOrphanedQuotes(maintCtx); err != nil {
		r.logger.Error("orphan cleanup failed", "error", err)
	}
}

func (r *Refresher) finish() {
	close(r.doneCh)
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// Stop gracefully stops the refresher
func (r *Refresher) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	r.logger.Info("stopping refresher")
	close(r.stopCh)

	select {
	case <-r.doneCh:
		return nil
	case <-time.After(10 * time.Second):
		return context.DeadlineExceeded
	}
}

// IsRunning returns whether the refresher is currently running
func (r *Refresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
