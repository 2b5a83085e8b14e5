package artifacts

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Scheduler runs periodic retention sweeps over the artifact store.
type Scheduler struct {
	store  *Store
	cron   *cron.Cron
	maxAge time.Duration
	logger arbor.ILogger
}

// NewScheduler creates a new retention scheduler.
func NewScheduler(store *Store, maxAge time.Duration, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		store:  store,
		cron:   cron.New(cron.WithSeconds()),
		maxAge: maxAge,
		logger: logger,
	}
}

// Start begins scheduled retention sweeps.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		// Default: daily at 3am
		schedule = "0 0 3 * * *"
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.runSweep()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Dur("max_age", s.maxAge).
		Msg("Artifact retention scheduler started")

	return nil
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("Artifact retention scheduler stopped")
}

func (s *Scheduler) runSweep() {
	s.logger.Debug().Msg("Starting artifact retention sweep")

	removed, err := s.store.Sweep(s.maxAge)
	if err != nil {
		s.logger.Error().Err(err).Msg("Artifact retention sweep failed")
		return
	}

	s.logger.Info().
		Int("removed", removed).
		Msg("Artifact retention sweep completed")
}
