package timeutil

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"
	_ "time/tzdata"
)

var now = time.Date(2025, 7, 7, 18, 30, 0, 0, time.UTC)

func TestResolveAbsolute(t *testing.T) {
	got, err := ResolveAbsolute("07:00:00", "-0600", now)
	if err != nil {
		t.Fatalf("ResolveAbsolute: %v", err)
	}

	want := time.Date(2025, 7, 7, 13, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, offset := got.Zone(); offset != -6*3600 {
		t.Errorf("expected -0600 zone, got offset %d", offset)
	}
}

func TestResolveAbsoluteUsesDateInOffsetZone(t *testing.T) {
	// 02:00 UTC on the 8th is still the 7th at -0600.
	late := time.Date(2025, 7, 8, 2, 0, 0, 0, time.UTC)

	got, err := ResolveAbsolute("22:00:00", "-0600", late)
	if err != nil {
		t.Fatalf("ResolveAbsolute: %v", err)
	}
	if got.Day() != 7 {
		t.Errorf("expected day 7 in offset zone, got %v", got)
	}
}

func TestResolveAbsoluteInvalid(t *testing.T) {
	tests := []struct {
		name   string
		wall   string
		offset string
	}{
		{"empty", "", ""},
		{"hour out of range", "25:00:00", "-0600"},
		{"minute out of range", "07:60:00", "-0600"},
		{"missing seconds", "07:00", "-0600"},
		{"colon offset", "07:00:00", "-06:00"},
		{"missing offset", "07:00:00", ""},
		{"garbage", "seven", "-0600"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveAbsolute(tt.wall, tt.offset, now)
			if !errors.Is(err, ErrInvalidTimeFormat) {
				t.Errorf("expected ErrInvalidTimeFormat, got %v", err)
			}
		})
	}
}

func TestRoundTripThroughCanonicalZone(t *testing.T) {
	// Etc/GMT zones use inverted signs: Etc/GMT+6 is UTC-6.
	zones := []struct {
		offset string
		zone   string
	}{
		{"-1200", "Etc/GMT+12"},
		{"-0600", "Etc/GMT+6"},
		{"-0300", "Etc/GMT+3"},
		{"+0000", "UTC"},
		{"+0530", "Asia/Kolkata"},
		{"+0900", "Asia/Tokyo"},
		{"+1400", "Etc/GMT-14"},
	}

	for _, z := range zones {
		t.Run(z.offset, func(t *testing.T) {
			for minute := 0; minute < 24*60; minute++ {
				h, m, sec := minute/60, minute%60, minute%60
				wall := fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
				want := fmt.Sprintf("%02d:%02d:00", h, m)

				instant, err := ResolveAbsolute(wall, z.offset, now)
				if err != nil {
					t.Fatalf("ResolveAbsolute(%s, %s): %v", wall, z.offset, err)
				}
				got, err := FormatForDeviceZone(instant, z.zone)
				if err != nil {
					t.Fatalf("FormatForDeviceZone(%v, %s): %v", instant, z.zone, err)
				}
				if got != want {
					t.Fatalf("%s at %s via %s: got %s, want %s", wall, z.offset, z.zone, got, want)
				}
			}
		})
	}
}

func TestFormatForDeviceZoneShape(t *testing.T) {
	shape := regexp.MustCompile(`^\d{2}:\d{2}:00$`)
	zones := []string{"UTC", "America/Mexico_City", "Europe/London", "Australia/Sydney"}

	start := time.Date(2025, 1, 1, 0, 0, 7, 0, time.UTC)
	for _, zone := range zones {
		for i := 0; i < 24*4; i++ {
			instant := start.Add(time.Duration(i) * 17 * time.Minute)
			got, err := FormatForDeviceZone(instant, zone)
			if err != nil {
				t.Fatalf("FormatForDeviceZone(%v, %s): %v", instant, zone, err)
			}
			if !shape.MatchString(got) {
				t.Fatalf("FormatForDeviceZone(%v, %s) = %q, does not match HH:MM:00", instant, zone, got)
			}
		}
	}
}

func TestFormatForDeviceZoneTwentyFourHour(t *testing.T) {
	instant := time.Date(2025, 7, 7, 22, 5, 0, 0, time.UTC)
	got, err := FormatForDeviceZone(instant, "UTC")
	if err != nil {
		t.Fatalf("FormatForDeviceZone: %v", err)
	}
	if got != "22:05:00" {
		t.Errorf("expected 22:05:00, got %s", got)
	}
}

func TestFormatForDeviceZoneUnknownZone(t *testing.T) {
	for _, zone := range []string{"", "Mars/Olympus_Mons"} {
		if _, err := FormatForDeviceZone(now, zone); !errors.Is(err, ErrInvalidTimeFormat) {
			t.Errorf("zone %q: expected ErrInvalidTimeFormat, got %v", zone, err)
		}
	}
}

func TestLoadLocationCaches(t *testing.T) {
	first, err := LoadLocation("America/Mexico_City")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	second, err := LoadLocation("America/Mexico_City")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	if first != second {
		t.Error("expected cached *time.Location to be reused")
	}
}

func TestParseTimeInBed(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"8:30", 8*time.Hour + 30*time.Minute, false},
		{"10:05", 10*time.Hour + 5*time.Minute, false},
		{"0:45", 45 * time.Minute, false},
		{"8", 0, true},
		{"8:3", 0, true},
		{"8:60", 0, true},
		{"-1:00", 0, true},
		{"h:mm", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeInBed(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimeFormat) {
					t.Errorf("expected ErrInvalidTimeFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeInBed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
