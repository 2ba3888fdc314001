package model

import (
	"strconv"
	"time"
)

// Joke is a seeded joke returned by /api/jokes/random.
type Joke struct {
	ID        int       `json:"id"`
	Joke      string    `json:"joke"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicID renders the joke id as exposed by the API ("j3").
func (j *Joke) PublicID() string {
	return "j" + strconv.Itoa(j.ID)
}

// Quote is a seeded quote returned by /api/quotes/random.
type Quote struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicID renders the quote id as exposed by the API ("q3").
func (q *Quote) PublicID() string {
	return "q" + strconv.Itoa(q.ID)
}
