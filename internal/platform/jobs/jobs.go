package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SlotReleaser frees booked slots whose appointments are in the past.
type SlotReleaser interface {
	ReleaseExpired(ctx context.Context, before time.Time) (int64, error)
}

// Scheduler runs housekeeping on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	slots   SlotReleaser
	logger  zerolog.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewScheduler(slots SlotReleaser, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		slots:   slots,
		logger:  logger.With().Str("component", "jobs").Logger(),
		timeout: time.Minute,
		now:     time.Now,
	}
}

// Schedule registers the slot release job. An empty spec disables it.
func (s *Scheduler) Schedule(spec string) error {
	if spec == "" {
		s.logger.Info().Msg("slot release job disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(spec, s.runSlotRelease); err != nil {
		return fmt.Errorf("schedule slot release %q: %w", spec, err)
	}
	s.logger.Info().Str("schedule", spec).Msg("slot release job scheduled")
	return nil
}

func (s *Scheduler) runSlotRelease() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.ReleaseSlots(ctx); err != nil {
		s.logger.Error().Err(err).Msg("slot release failed")
	}
}

// ReleaseSlots frees slots held by appointments dated before today.
func (s *Scheduler) ReleaseSlots(ctx context.Context) (int64, error) {
	today := s.now()
	n, err := s.slots.ReleaseExpired(ctx, today)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("released", n).Str("before", today.Format("2006-01-02")).Msg("released expired slots")
	return n, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
