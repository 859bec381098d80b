package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ldgsmhrd/selfstar/internal/config"
	"github.com/ldgsmhrd/selfstar/internal/domain/repository"
)

// SnapshotScheduler runs the snapshot tick on an interval. It is a plain
// cancellable loop: Start launches it, Stop waits for the in-flight tick,
// and RunOnce drives a single tick synchronously for tests and the
// snapshot_now endpoint.
type SnapshotScheduler struct {
	snapshots *SnapshotService
	seen      repository.SeenEventRepository
	cfg       config.SnapshotsConfig
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSnapshotScheduler(snapshots *SnapshotService, seen repository.SeenEventRepository, cfg config.SnapshotsConfig, logger *zap.Logger) *SnapshotScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	return &SnapshotScheduler{
		snapshots: snapshots,
		seen:      seen,
		cfg:       cfg,
		logger:    logger.Named("snapshot_scheduler"),
	}
}

// Start launches the loop. The first tick fires after one full interval so
// a restart does not immediately re-harvest.
func (s *SnapshotScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)
	s.logger.Info("Snapshot scheduler started", zap.Duration("interval", s.cfg.Interval))
}

// Stop cancels the loop and waits for any in-flight tick to finish.
func (s *SnapshotScheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.logger.Info("Snapshot scheduler stopped")
}

func (s *SnapshotScheduler) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes one tick plus the optional seen-event retention sweep.
func (s *SnapshotScheduler) RunOnce(ctx context.Context) {
	if err := s.snapshots.RunTick(ctx); err != nil {
		s.logger.Error("Snapshot tick failed", zap.Error(err))
	}
	s.sweepSeenEvents(ctx)
}

// sweepSeenEvents prunes acknowledged event ids past the configured
// retention. Zero retention keeps them forever.
func (s *SnapshotScheduler) sweepSeenEvents(ctx context.Context) {
	if s.cfg.SeenEventRetention <= 0 || s.seen == nil {
		return
	}
	cutoff := time.Now().UTC().Add(-s.cfg.SeenEventRetention)
	removed, err := s.seen.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Warn("Seen-event retention sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("Pruned seen events", zap.Int64("removed", removed))
	}
}
