package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/msfttoler/sports/pkg/models"
)

// ErrRefreshInProgress is returned by RunNow while another refresh runs
var ErrRefreshInProgress = errors.New("refresh already in progress")

// Scheduler runs the refresher on an interval. At most one refresh is in
// flight at any time.
type Scheduler struct {
	refresher *Refresher
	interval  time.Duration
	running   sync.Mutex
	log       logrus.FieldLogger
}

// New creates a scheduler. An interval of zero disables the loop.
func New(refresher *Refresher, interval time.Duration, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		interval:  interval,
		log:       log.WithField("component", "scheduler"),
	}
}

// Enabled reports whether Start will run periodic refreshes
func (s *Scheduler) Enabled() bool {
	return s.interval > 0 && s.refresher.config.APIKeySet
}

// Interval returns the refresh interval
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start refreshes immediately and then on every tick until ctx is
// cancelled. Ticks that land during a running refresh are skipped.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.Enabled() {
		s.log.WithFields(logrus.Fields{
			"interval":    s.interval,
			"api_key_set": s.refresher.config.APIKeySet,
		}).Info("scheduler disabled")
		return
	}

	s.log.WithField("interval", s.interval).Info("scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		}
	}
}

// RunNow performs a refresh on the caller's goroutine
func (s *Scheduler) RunNow(ctx context.Context) (models.RefreshResult, error) {
	if !s.running.TryLock() {
		return models.RefreshResult{}, ErrRefreshInProgress
	}
	defer s.running.Unlock()

	return s.refresher.Refresh(ctx), nil
}

// LastResult returns the most recent refresh result, or nil
func (s *Scheduler) LastResult() *models.RefreshResult {
	return s.refresher.LastResult()
}

// Predictions returns predictions from the last successful refresh
func (s *Scheduler) Predictions() []models.Prediction {
	return s.refresher.Predictions()
}

// ValueBets returns value bets from the last successful refresh
func (s *Scheduler) ValueBets() []models.ValueBet {
	return s.refresher.ValueBets()
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.RunNow(ctx); err != nil {
		s.log.WithError(err).Debug("skipping scheduled refresh")
	}
}
