// Package scheduler runs a job once a day at a fixed local time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goodtune/sleepsync/internal/clock"
	"github.com/rs/zerolog"
)

var (
	// ErrRunInProgress is returned when a run is requested while another
	// run still holds the device.
	ErrRunInProgress = errors.New("sync already in progress")

	// ErrStopped is returned by RunNow after Stop.
	ErrStopped = errors.New("scheduler stopped")
)

// Job is one scheduled run. Its error is logged; the schedule continues.
type Job func(ctx context.Context) error

// NightlyScheduler runs a Job every day at a wall-clock time
type NightlyScheduler struct {
	job      Job
	runTime  time.Time // Time of day to run (only hour and minute are used)
	clock    clock.Clock
	location *time.Location
	logger   zerolog.Logger

	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	runMu   sync.Mutex // held for the duration of a job
	mu      sync.Mutex
	stopped bool
	pending sync.WaitGroup // RunNow calls in flight
}

// New creates a nightly scheduler. runTime is "HH:MM" in loc, which defaults
// to time.Local.
func New(job Job, runTime string, loc *time.Location, clk clock.Clock, logger zerolog.Logger) (*NightlyScheduler, error) {
	parsedTime, err := time.Parse("15:04", runTime)
	if err != nil {
		return nil, fmt.Errorf("invalid run time %q: %w", runTime, err)
	}
	if loc == nil {
		loc = time.Local
	}
	if clk == nil {
		clk = clock.RealClock{}
	}

	return &NightlyScheduler{
		job:      job,
		runTime:  parsedTime,
		clock:    clk,
		location: loc,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start begins the scheduler
func (s *NightlyScheduler) Start() {
	go s.run()
	s.logger.Info().
		Str("run_time", s.runTime.Format("15:04")).
		Str("location", s.location.String()).
		Msg("Nightly sync scheduler started")
}

// Stop stops the scheduler and waits for in-flight runs, scheduled or
// on demand, to return. Their contexts are cancelled.
func (s *NightlyScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		close(s.stopChan)
	})
	<-s.done
	s.pending.Wait()
	s.logger.Info().Msg("Nightly sync scheduler stopped")
}

// RunNow runs the job immediately on the caller's goroutine. Only one run
// executes at a time: if another is in progress RunNow returns
// ErrRunInProgress without calling the job.
func (s *NightlyScheduler) RunNow(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.pending.Add(1)
	s.mu.Unlock()
	defer s.pending.Done()

	return s.exclusive(ctx)
}

func (s *NightlyScheduler) run() {
	defer close(s.done)

	for {
		next := s.NextRun()
		wait := next.Sub(s.clock.Now())

		s.logger.Info().
			Time("next_run", next).
			Dur("wait_duration", wait).
			Msg("Scheduled next sync")

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			s.perform()
		case <-s.stopChan:
			timer.Stop()
			return
		}
	}
}

func (s *NightlyScheduler) perform() {
	s.logger.Info().Msg("Starting scheduled sync")
	err := s.exclusive(context.Background())
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.logger.Warn().Msg("Skipping scheduled sync, another sync is running")
	case err != nil:
		s.logger.Error().Err(err).Msg("Scheduled sync failed")
	default:
		s.logger.Info().Msg("Scheduled sync complete")
	}
}

// exclusive runs the job under runMu with a context that Stop cancels.
func (s *NightlyScheduler) exclusive(parent context.Context) error {
	if !s.runMu.TryLock() {
		return ErrRunInProgress
	}
	defer s.runMu.Unlock()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return s.job(ctx)
}

// NextRun returns the next occurrence of the run time strictly after now.
func (s *NightlyScheduler) NextRun() time.Time {
	now := s.clock.Now().In(s.location)

	today := time.Date(
		now.Year(), now.Month(), now.Day(),
		s.runTime.Hour(), s.runTime.Minute(), 0, 0,
		s.location,
	)

	if !now.Before(today) {
		return today.AddDate(0, 0, 1)
	}
	return today
}
