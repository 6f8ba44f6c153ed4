package ledger

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler finalizes every table of a registry periodically.
type Scheduler struct {
	registry *Registry
	logger   *slog.Logger
	interval time.Duration
}

// NewScheduler creates a Scheduler that will finalize all tables every interval.
func NewScheduler(registry *Registry, logger *slog.Logger, interval time.Duration) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{registry: registry, logger: logger, interval: interval}
}

// Start runs an immediate pass then repeats every interval until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.FinalizeAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.FinalizeAll(ctx)
		}
	}
}

// FinalizeAll finalizes every table in ID order and logs a summary.
// Failures are logged by the ledgers and counted here.
func (s *Scheduler) FinalizeAll(ctx context.Context) (ok, failed int) {
	for _, l := range s.registry.Ledgers() {
		if ctx.Err() != nil {
			return ok, failed
		}
		if _, err := l.Finalize(ctx); err != nil {
			failed++
			continue
		}
		ok++
	}
	if ok+failed > 0 {
		s.logger.Info("finalize round complete", "total", ok+failed, "ok", ok, "failed", failed)
	}
	return ok, failed
}
