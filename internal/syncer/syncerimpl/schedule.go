package syncerimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/orgball2608/snappy-sync/internal/domain"
	apperrors "github.com/orgball2608/snappy-sync/pkg/errors"
)

const ledgerRetention = 7 * 24 * time.Hour

// Schedule starts the notification poller, the orphaned media sweep and the
// daily ledger cleanup. They run until ctx is done or Shutdown is called.
func (s *Impl) Schedule(ctx context.Context) error {
	loc, err := time.LoadLocation(s.config.Scheduler.Timezone)
	if err != nil {
		loc = time.Local
		s.logger.Warn("Failed to load scheduler timezone, using local timezone", "timezone", s.config.Scheduler.Timezone, "error", err)
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(loc), gocron.WithClock(s.clock))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.config.Scheduler.NotificationPoll),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			if _, err := s.PollNotifications(ctx); err != nil && !apperrors.IsUnauthorized(err) {
				s.logger.Error("Notification poll failed", "error", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule notification poll: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.config.Scheduler.MediaSweep),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			if _, err := s.SweepOrphanedMedia(ctx); err != nil {
				s.logger.Error("Orphaned media sweep failed", "error", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule media sweep: %w", err)
	}

	// Daily at 3:00 AM
	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				s.logger.Info("Context cancelled, stopping ledger cleanup job")
				return
			}
			s.cleanupLedger(ctx)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule ledger cleanup: %w", err)
	}

	s.schedMu.Lock()
	if s.scheduler != nil {
		s.schedMu.Unlock()
		_ = scheduler.Shutdown()
		return fmt.Errorf("schedules already running")
	}
	s.scheduler = scheduler
	s.schedMu.Unlock()

	scheduler.Start()
	s.logger.Info("Schedules started",
		"notification_poll", s.config.Scheduler.NotificationPoll.String(),
		"media_sweep", s.config.Scheduler.MediaSweep.String(),
	)
	return nil
}

func (s *Impl) cleanupLedger(ctx context.Context) {
	s.logger.Info("Starting scheduled ledger cleanup job")

	cleanupCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	rows, err := s.ledger.CleanupOldRecords(cleanupCtx, domain.MediaDeleted, ledgerRetention)
	if err != nil {
		s.logger.Error("Failed to clean up old media records", "error", err)
		return
	}
	s.logger.Info("Ledger cleanup completed successfully", "rows_deleted", rows)
}
