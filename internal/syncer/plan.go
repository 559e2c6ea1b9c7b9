package syncer

import (
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/sleepsync/internal/timeutil"
	"github.com/goodtune/sleepsync/internal/whoop"
)

// DefaultRecoveryTier is the recovery percentage the plan targets.
const DefaultRecoveryTier = "100"

// PlanSource records which branch produced a BedtimePlan.
type PlanSource string

const (
	// SourceAlarmPreference plans backwards from the smart alarm's upper
	// bound.
	SourceAlarmPreference PlanSource = "alarm_preference"
	// SourceRecommendedWindow uses the tier's optimal sleep window as is.
	SourceRecommendedWindow PlanSource = "recommended_window"
)

// BedtimePlan is the computed bedtime and wake instant for tonight.
type BedtimePlan struct {
	Bedtime   time.Time
	Wake      time.Time
	TimeInBed time.Duration // zero for SourceRecommendedWindow
	Source    PlanSource
}

// ComputePlan derives tonight's plan from the alarm preference and the
// recommendation for tier.
//
// With the smart alarm enabled, wake is the preference's upper bound on the
// day after now and bedtime is wake minus the tier's time in bed. Otherwise
// bedtime and wake are the tier's optimal window start and end, both
// resolved on today's date in the preference's offset.
func ComputePlan(pref *whoop.AlarmPreference, rec *whoop.SleepRecommendation, tier string, now time.Time) (BedtimePlan, error) {
	if pref == nil {
		return BedtimePlan{}, errors.New("alarm preference is required")
	}

	recommendation, ok := rec.Tier(tier)
	if !ok {
		return BedtimePlan{}, fmt.Errorf("%w: %q", ErrMissingRecommendationTier, tier)
	}

	if pref.Enabled {
		upper, err := timeutil.ResolveAbsolute(pref.UpperTimeBound, pref.TimeZoneOffset, now)
		if err != nil {
			return BedtimePlan{}, fmt.Errorf("alarm upper bound: %w", err)
		}
		timeInBed, err := timeutil.ParseTimeInBed(recommendation.TimeInBed)
		if err != nil {
			return BedtimePlan{}, fmt.Errorf("tier %q: %w", tier, err)
		}

		wake := upper.AddDate(0, 0, 1)
		return BedtimePlan{
			Bedtime:   wake.Add(-timeInBed),
			Wake:      wake,
			TimeInBed: timeInBed,
			Source:    SourceAlarmPreference,
		}, nil
	}

	window := recommendation.OptimalEndpoints
	bedtime, err := timeutil.ResolveAbsolute(window.Start, pref.TimeZoneOffset, now)
	if err != nil {
		return BedtimePlan{}, fmt.Errorf("tier %q window start: %w", tier, err)
	}
	wake, err := timeutil.ResolveAbsolute(window.End, pref.TimeZoneOffset, now)
	if err != nil {
		return BedtimePlan{}, fmt.Errorf("tier %q window end: %w", tier, err)
	}

	return BedtimePlan{
		Bedtime: bedtime,
		Wake:    wake,
		Source:  SourceRecommendedWindow,
	}, nil
}
