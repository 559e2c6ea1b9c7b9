package eightsleep

import "encoding/json"

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

var allDays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// defaultStartSettings puts the base into its sleep position at bedtime
// with no pillow or bed temperature change.
var defaultStartSettings = json.RawMessage(`{"elevationPreset":"sleep","pillowBedtime":0,"bedtime":0}`)

// DefaultAlarm returns the wake alarm template: thermal and vibration on,
// audio off, every day, smart wake features off. ID and Time are left empty.
func DefaultAlarm() Alarm {
	days := make(map[string]bool, len(allDays))
	for _, d := range allDays {
		days[d] = true
	}

	return Alarm{
		Enabled:  true,
		SkipNext: false,
		Snoozing: false,
		Tags:     []string{},
		Thermal: Thermal{
			Enabled: true,
			Level:   50,
		},
		Vibration: Vibration{
			Enabled:    true,
			PowerLevel: 50,
			Pattern:    "INTENSE",
		},
		Audio: Audio{
			Enabled: false,
			Level:   30,
		},
		IsSuggested: true,
		Repeat: Repeat{
			Enabled:  true,
			WeekDays: days,
		},
		Smart: Smart{
			LightSleepEnabled: false,
			SleepCapEnabled:   false,
			SleepCapMinutes:   480,
		},
	}
}

// DefaultBedtimeSchedule returns the weeknight bedtime schedule template.
// ID and Time are left empty.
func DefaultBedtimeSchedule() Schedule {
	return Schedule{
		Enabled:       true,
		Days:          append([]string(nil), weekdays...),
		StartSettings: append(json.RawMessage(nil), defaultStartSettings...),
	}
}

// ReplaceTime returns the bedtime template carrying existing's id and the
// given time. The device's own enabled flag, days and start settings are
// not kept, so the pushed schedule is always enabled.
func ReplaceTime(existing Schedule, time string) Schedule {
	next := DefaultBedtimeSchedule()
	next.ID = existing.ID
	next.Time = time
	return next
}

// NewAlarm returns the alarm template with id and time filled in.
func NewAlarm(id, time string) Alarm {
	a := DefaultAlarm()
	a.ID = id
	a.Time = time
	return a
}
