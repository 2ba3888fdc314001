package model

import "time"

// UsageEntry is one row of the usage ledger: a single handled API request.
type UsageEntry struct {
	ID             string    `json:"id"`
	UserID         *int64    `json:"user_id,omitempty"`
	Method         string    `json:"method"`
	Endpoint       string    `json:"endpoint"`
	StatusCode     int       `json:"status_code"`
	ResponseTimeMS int64     `json:"response_time_ms"`
	Timestamp      time.Time `json:"timestamp"`
}

// HasUser reports whether the entry is attributed to a known user.
func (e *UsageEntry) HasUser() bool {
	return e.UserID != nil
}

// StartOfDay returns local midnight of the day containing t.
// Daily quotas reset at this instant.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NextReset returns the next local midnight after t.
func NextReset(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}
