// Package syncer aligns the mattress bedtime schedule and wake alarm with
// tonight's sleep recommendation.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/sleepsync/internal/clock"
	"github.com/goodtune/sleepsync/internal/eightsleep"
	"github.com/goodtune/sleepsync/internal/metrics"
	"github.com/goodtune/sleepsync/internal/session"
	"github.com/goodtune/sleepsync/internal/timeutil"
	"github.com/goodtune/sleepsync/internal/whoop"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// CoachingProvider supplies the sleep recommendation and alarm preference.
type CoachingProvider interface {
	Session(ctx context.Context) (session.Session, error)
	AlarmPreference(ctx context.Context) (*whoop.AlarmPreference, error)
	SleepRecommendation(ctx context.Context) (*whoop.SleepRecommendation, error)
}

// DeviceProvider reads and mutates the mattress schedule and alarms.
type DeviceProvider interface {
	Session(ctx context.Context) (session.Session, error)
	Me(ctx context.Context) (*eightsleep.User, error)
	Schedules(ctx context.Context) ([]eightsleep.Schedule, error)
	SetBedtime(ctx context.Context, s eightsleep.Schedule) error
	Alarms(ctx context.Context) ([]eightsleep.Alarm, error)
	DeleteAlarm(ctx context.Context, id string) error
	CreateAlarm(ctx context.Context, a eightsleep.Alarm) error
}

// Config holds syncer configuration
type Config struct {
	RecoveryTier string      // defaults to DefaultRecoveryTier
	Clock        clock.Clock // defaults to the system clock
	NewID        func() string
}

// Syncer runs one synchronization against a coaching provider and a device.
type Syncer struct {
	coach  CoachingProvider
	device DeviceProvider
	tier   string
	clock  clock.Clock
	newID  func() string
	logger zerolog.Logger
}

// Preview is everything a run would act on, gathered without mutating the
// device.
type Preview struct {
	Plan      BedtimePlan
	TimeZone  string
	Bedtime   string // "HH:MM:00" in TimeZone
	Wake      string // "HH:MM:00" in TimeZone
	Schedule  eightsleep.Schedule
	Alarms    []eightsleep.Alarm
	FetchedAt time.Time
}

// Result describes a completed run.
type Result struct {
	Preview
	AlarmID       string
	DeletedAlarms int
}

// New creates a Syncer
func New(coach CoachingProvider, device DeviceProvider, cfg Config, logger zerolog.Logger) *Syncer {
	if cfg.RecoveryTier == "" {
		cfg.RecoveryTier = DefaultRecoveryTier
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	return &Syncer{
		coach:  coach,
		device: device,
		tier:   cfg.RecoveryTier,
		clock:  cfg.Clock,
		newID:  cfg.NewID,
		logger: logger.With().Str("component", "syncer").Logger(),
	}
}

// Run replaces the device's bedtime schedule time and its alarm set with a
// single wake alarm. A failure after the schedule update leaves the device
// partially updated; nothing is rolled back.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result, err := s.run(ctx)
	metrics.RunDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RunsTotal.WithLabelValues("failure").Inc()
		s.logger.Error().Err(err).Msg("Synchronization failed")
		return nil, err
	}

	metrics.RunsTotal.WithLabelValues("success").Inc()
	metrics.LastSuccessTimestamp.SetToCurrentTime()
	s.logger.Info().
		Str("bedtime", result.Bedtime).
		Str("wake", result.Wake).
		Str("alarm_id", result.AlarmID).
		Dur("duration", time.Since(start)).
		Msg("Synchronization complete")

	return result, nil
}

func (s *Syncer) run(ctx context.Context) (*Result, error) {
	preview, err := s.prepare(ctx)
	if err != nil {
		return nil, err
	}

	schedule := eightsleep.ReplaceTime(preview.Schedule, preview.Bedtime)
	if err := s.device.SetBedtime(ctx, schedule); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("schedule_id", schedule.ID).
		Str("time", schedule.Time).
		Msg("Bedtime schedule replaced")

	preview.Alarms, err = s.device.Alarms(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.deleteAlarms(ctx, preview.Alarms); err != nil {
		return nil, err
	}

	alarm := eightsleep.NewAlarm(s.newID(), preview.Wake)
	if err := s.device.CreateAlarm(ctx, alarm); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("alarm_id", alarm.ID).
		Str("time", alarm.Time).
		Msg("Wake alarm created")

	return &Result{
		Preview:       *preview,
		AlarmID:       alarm.ID,
		DeletedAlarms: len(preview.Alarms),
	}, nil
}

// deleteAlarms deletes alarms concurrently. Every deletion is waited for;
// the first failure is returned.
func (s *Syncer) deleteAlarms(ctx context.Context, alarms []eightsleep.Alarm) error {
	var g errgroup.Group
	for _, a := range alarms {
		g.Go(func() error {
			if err := s.device.DeleteAlarm(ctx, a.ID); err != nil {
				return err
			}
			metrics.AlarmsDeletedTotal.Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to clear alarms: %w", err)
	}

	s.logger.Info().Int("count", len(alarms)).Msg("Existing alarms deleted")
	return nil
}

// Plan authenticates both providers, computes tonight's plan and reads the
// device state a run would act on. It makes no mutating call.
func (s *Syncer) Plan(ctx context.Context) (*Preview, error) {
	preview, err := s.prepare(ctx)
	if err != nil {
		return nil, err
	}

	preview.Alarms, err = s.device.Alarms(ctx)
	if err != nil {
		return nil, err
	}
	return preview, nil
}

// prepare does every read that precedes the schedule update. Alarms are
// left empty; a run lists them after the update.
func (s *Syncer) prepare(ctx context.Context) (*Preview, error) {
	if _, err := s.coach.Session(ctx); err != nil {
		return nil, err
	}
	if _, err := s.device.Session(ctx); err != nil {
		return nil, err
	}

	pref, err := s.coach.AlarmPreference(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.coach.SleepRecommendation(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	plan, err := ComputePlan(pref, rec, s.tier, now)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("source", string(plan.Source)).
		Time("bedtime", plan.Bedtime).
		Time("wake", plan.Wake).
		Msg("Bedtime plan computed")

	user, err := s.device.Me(ctx)
	if err != nil {
		return nil, err
	}
	zone := user.CurrentDevice.TimeZone

	bedtime, err := timeutil.FormatForDeviceZone(plan.Bedtime, zone)
	if err != nil {
		return nil, fmt.Errorf("device time zone: %w", err)
	}
	wake, err := timeutil.FormatForDeviceZone(plan.Wake, zone)
	if err != nil {
		return nil, fmt.Errorf("device time zone: %w", err)
	}

	schedules, err := s.device.Schedules(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case len(schedules) > 1:
		return nil, fmt.Errorf("%w: device reports %d", ErrAmbiguousSchedule, len(schedules))
	case len(schedules) == 0:
		return nil, ErrNoSchedule
	}

	return &Preview{
		Plan:      plan,
		TimeZone:  zone,
		Bedtime:   bedtime,
		Wake:      wake,
		Schedule:  schedules[0],
		FetchedAt: now,
	}, nil
}
