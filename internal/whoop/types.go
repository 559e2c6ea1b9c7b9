package whoop

// signInRequest is the password sign-in body.
type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// signInResponse carries lifetimes in milliseconds.
type signInResponse struct {
	AccessToken           string `json:"access_token"`
	AccessTokenExpiresIn  int64  `json:"access_token_expires_in"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
}

// SleepRecommendation is the sleep coach's snapshot for tonight. Only the
// per-tier recommendations are interpreted; tiers are keyed by recovery
// percentage, e.g. "100".
type SleepRecommendation struct {
	Tiers                  map[string]TierRecommendation `json:"recommended_time_in_bed_formatted"`
	EligibleForSmartAlarms bool                          `json:"eligible_for_smart_alarms"`
	AlarmScheduleState     string                        `json:"alarm_schedule_state"`
	NeedBreakdown          NeedBreakdown                 `json:"need_breakdown_formatted"`
}

// Tier returns the recommendation for key and whether it exists.
func (r *SleepRecommendation) Tier(key string) (TierRecommendation, bool) {
	if r == nil || r.Tiers == nil {
		return TierRecommendation{}, false
	}
	tier, ok := r.Tiers[key]
	return tier, ok
}

// TierRecommendation is one recovery tier's sleep window.
type TierRecommendation struct {
	TimeInBed        string      `json:"recommended_time_in_bed_time_string"` // "H:mm"
	OptimalEndpoints SleepWindow `json:"optimal_endpoints_formatted"`
	SleepNeed        string      `json:"sleep_need_time_string"`
	EstimatedAwake   string      `json:"estimated_awake_time_string"`
	FlexSleepTime    bool        `json:"flex_sleep_time"`
}

// SleepWindow holds "HH:MM:SS" wall-clock bounds.
type SleepWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// NeedBreakdown is the formatted sleep need, kept for logging.
type NeedBreakdown struct {
	Total    string `json:"total_need"`
	Baseline string `json:"baseline_need"`
	Naps     string `json:"naps_need"`
	Strain   string `json:"strain_need"`
	Debt     string `json:"debt_need"`
}

// AlarmPreference is the user's smart alarm configuration.
type AlarmPreference struct {
	Enabled        bool   `json:"enabled"`
	UpperTimeBound string `json:"upper_time_bound"` // "HH:mm:ss"
	LowerTimeBound string `json:"lower_time_bound"`
	TimeZoneOffset string `json:"time_zone_offset"` // "±HHMM"
	Goal           string `json:"goal"`
}
