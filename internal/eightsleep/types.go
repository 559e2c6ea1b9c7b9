package eightsleep

import "encoding/json"

// tokenRequest is the password-grant body for the auth API.
type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	GrantType    string `json:"grant_type"`
	Username     string `json:"username"`
	Password     string `json:"password"`
}

// tokenResponse carries the access lifetime in seconds.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"userId"`
}

type meResponse struct {
	User User `json:"user"`
}

// User is the authenticated account's profile.
type User struct {
	UserID        string `json:"userId"`
	Email         string `json:"email,omitempty"`
	CurrentDevice Device `json:"currentDevice"`
}

// Device is the mattress the account is currently paired with.
type Device struct {
	ID       string `json:"id"`
	Side     string `json:"side,omitempty"`
	TimeZone string `json:"timeZone"` // IANA name
}

// Schedule is a bedtime schedule. StartSettings is passed through untouched.
type Schedule struct {
	ID            string          `json:"id,omitempty"`
	Enabled       bool            `json:"enabled"`
	Time          string          `json:"time"` // "HH:MM:00" in the device zone
	Days          []string        `json:"days,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	StartSettings json.RawMessage `json:"startSettings,omitempty"`
}

type schedulesResponse struct {
	Schedules []Schedule `json:"schedules"`
}

type setBedtimeRequest struct {
	Schedules []Schedule `json:"schedules"`
}

// Alarm is a wake alarm.
type Alarm struct {
	ID          string    `json:"id"`
	Enabled     bool      `json:"enabled"`
	Time        string    `json:"time"` // "HH:MM:00" in the device zone
	SkipNext    bool      `json:"skipNext"`
	Snoozing    bool      `json:"snoozing"`
	Tags        []string  `json:"tags"`
	Thermal     Thermal   `json:"thermal"`
	Vibration   Vibration `json:"vibration"`
	Audio       Audio     `json:"audio"`
	IsSuggested bool      `json:"isSuggested"`
	Repeat      Repeat    `json:"repeat"`
	Smart       Smart     `json:"smart"`
}

type Thermal struct {
	Enabled bool `json:"enabled"`
	Level   int  `json:"level"`
}

type Vibration struct {
	Enabled    bool   `json:"enabled"`
	PowerLevel int    `json:"powerLevel"`
	Pattern    string `json:"pattern"`
}

type Audio struct {
	Enabled bool `json:"enabled"`
	Level   int  `json:"level"`
}

// Repeat maps lowercase weekday names to whether the alarm fires that day.
type Repeat struct {
	Enabled  bool            `json:"enabled"`
	WeekDays map[string]bool `json:"weekDays"`
}

type Smart struct {
	LightSleepEnabled bool `json:"lightSleepEnabled"`
	SleepCapEnabled   bool `json:"sleepCapEnabled"`
	SleepCapMinutes   int  `json:"sleepCapMinutes"`
}

type alarmsResponse struct {
	Alarms []Alarm `json:"alarms"`
}
