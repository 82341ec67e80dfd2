package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Vankh007/tv4u-sub002/internal/metrics"
)

// SessionPruner removes device-session rows idle past the retention period.
type SessionPruner interface {
	PruneIdle(ctx context.Context, olderThan time.Time) (int64, error)
}

// Scheduler runs the nightly session-retention sweep. The sweep is pure
// housekeeping: active-set membership is always computed from the activity
// window, so removing long-idle rows changes no admission decision.
type Scheduler struct {
	cron      *cron.Cron
	sessions  SessionPruner
	retention time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

func NewScheduler(sessions SessionPruner, retention time.Duration, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:      c,
		sessions:  sessions,
		retention: retention,
		log:       log,
		now:       time.Now,
	}
}

func (s *Scheduler) Start() error {
	if s.sessions == nil || s.retention <= 0 {
		return nil
	}

	if _, err := s.cron.AddFunc("0 30 3 * * *", s.pruneIdleSessions); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) pruneIdleSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	removed, err := s.sessions.PruneIdle(ctx, s.now().Add(-s.retention))
	if err != nil {
		s.log.Error().Err(err).Msg("session prune failed")
		return
	}
	if removed > 0 {
		metrics.SessionsPruned.Add(float64(removed))
	}
	s.log.Info().Int64("removed", removed).Msg("idle device sessions pruned")
}
