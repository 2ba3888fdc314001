// Package model defines domain entities for the application.
package model

import (
	"strconv"
	"time"
)

// DefaultRateLimit is the daily request allowance given to new users.
const DefaultRateLimit = 100

// User is a registered API consumer.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	APIKey       string    `json:"api_key"`
	RateLimit    int       `json:"rate_limit"`
	CreatedAt    time.Time `json:"created_at"`
}

// IDString renders the user id the way it appears in API responses.
func (u *User) IDString() string {
	return strconv.FormatInt(u.ID, 10)
}

// DailyLimit returns the effective daily allowance.
// Non-positive stored values fall back to DefaultRateLimit.
func (u *User) DailyLimit() int {
	if u.RateLimit <= 0 {
		return DefaultRateLimit
	}
	return u.RateLimit
}
