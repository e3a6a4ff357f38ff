package domain

// Limits are the user-configured daily and monthly usage thresholds, in watts.
type Limits struct {
	Daily   float64 `json:"daily"`
	Monthly float64 `json:"monthly"`
}

// UsageSummary is the server-computed usage aggregate. Limits is nil when the
// user has not configured any.
type UsageSummary struct {
	DailyUsage   float64 `json:"dailyUsage"`
	MonthlyUsage float64 `json:"monthlyUsage"`
	Limits       *Limits `json:"limits,omitempty"`
}

// OverLimit reports whether either configured limit is exceeded by the
// current usage. Always false when no limits are set.
func (s UsageSummary) OverLimit() bool {
	if s.Limits == nil {
		return false
	}
	return (s.Limits.Daily > 0 && s.DailyUsage > s.Limits.Daily) ||
		(s.Limits.Monthly > 0 && s.MonthlyUsage > s.Limits.Monthly)
}
