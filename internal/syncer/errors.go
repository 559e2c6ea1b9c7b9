package syncer

import "errors"

var (
	// ErrMissingRecommendationTier is returned when the sleep recommendation
	// has no entry for the target recovery tier.
	ErrMissingRecommendationTier = errors.New("recommendation tier missing")

	// ErrAmbiguousSchedule is returned when the device reports more than one
	// bedtime schedule.
	ErrAmbiguousSchedule = errors.New("more than one bedtime schedule")

	// ErrNoSchedule is returned when the device reports no bedtime schedule.
	ErrNoSchedule = errors.New("no bedtime schedule")
)
