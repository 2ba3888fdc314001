package model

import "time"

// ShortURL is a shortened link resolved by GET /s/{code}.
type ShortURL struct {
	Code        string    `json:"code"`
	OriginalURL string    `json:"original_url"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"created_at"`
}
