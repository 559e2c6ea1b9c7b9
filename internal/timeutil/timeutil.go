// Package timeutil converts provider wall-clock values into absolute
// instants and back into device-local wall-clock strings.
package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimeFormat is returned when a wall-clock, offset or duration
// string does not parse.
var ErrInvalidTimeFormat = errors.New("invalid time format")

const (
	wallClockLayout = "15:04:05"
	offsetLayout    = "-0700"
	deviceLayout    = "15:04:00"
)

// ResolveAbsolute combines an "HH:MM:SS" wall-clock time with a "±HHMM" UTC
// offset into an instant on the date that is current in that offset at now.
// The result is expressed in a fixed zone with the given offset.
func ResolveAbsolute(wallClock, utcOffset string, now time.Time) (time.Time, error) {
	parsed, err := time.Parse(wallClockLayout+offsetLayout, wallClock+utcOffset)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q with offset %q: %v", ErrInvalidTimeFormat, wallClock, utcOffset, err)
	}

	_, offsetSeconds := parsed.Zone()
	zone := time.FixedZone(utcOffset, offsetSeconds)
	today := now.In(zone)

	return time.Date(
		today.Year(), today.Month(), today.Day(),
		parsed.Hour(), parsed.Minute(), parsed.Second(), 0,
		zone,
	), nil
}

// FormatForDeviceZone projects instant into the named IANA zone and formats
// it as 24-hour "HH:MM:00". Seconds are always zero because device schedules
// and alarms only honour minute granularity.
func FormatForDeviceZone(instant time.Time, zoneName string) (string, error) {
	loc, err := LoadLocation(zoneName)
	if err != nil {
		return "", err
	}
	return instant.In(loc).Format(deviceLayout), nil
}

// ParseTimeInBed parses an "H:mm" hours:minutes string such as "8:30".
func ParseTimeInBed(s string) (time.Duration, error) {
	hours, minutes, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(minutes) != 2 {
		return 0, fmt.Errorf("%w: time in bed %q", ErrInvalidTimeFormat, s)
	}

	h, err := strconv.Atoi(hours)
	if err != nil || h < 0 {
		return 0, fmt.Errorf("%w: time in bed %q", ErrInvalidTimeFormat, s)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: time in bed %q", ErrInvalidTimeFormat, s)
	}

	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}
