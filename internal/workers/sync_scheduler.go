package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"contest-bot-backend/internal/common/logger"
	"contest-bot-backend/internal/service/countsync"
)

// AllSyncer refreshes every published contest.
type AllSyncer interface {
	SyncAll(ctx context.Context) (countsync.Summary, error)
}

// SyncScheduler re-runs the count synchronization on a fixed interval so
// buttons converge even when participant events are lost.
type SyncScheduler struct {
	cron     gocron.Scheduler
	syncer   AllSyncer
	interval time.Duration
}

func NewSyncScheduler(syncer AllSyncer, interval time.Duration) (*SyncScheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sync interval must be positive, got %s", interval)
	}
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	return &SyncScheduler{cron: cron, syncer: syncer, interval: interval}, nil
}

// Start schedules the job and runs it once immediately. Runs never overlap.
func (s *SyncScheduler) Start(ctx context.Context) error {
	_, err := s.cron.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.runOnce(ctx) }),
		gocron.WithName("sync-all-contests"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("scheduling contest sync: %w", err)
	}

	s.cron.Start()
	logger.Info().Dur("interval", s.interval).Msg("Contest sync scheduler started")
	return nil
}

// Stop shuts down the scheduler and waits for a running job.
func (s *SyncScheduler) Stop() error {
	return s.cron.Shutdown()
}

func (s *SyncScheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	started := time.Now()
	summary, err := s.syncer.SyncAll(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Scheduled contest sync failed")
		return
	}
	logger.Info().
		Int("total", summary.Total).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Dur("took", time.Since(started)).
		Msg("Scheduled contest sync finished")
}
