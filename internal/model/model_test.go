package model

import (
	"testing"
	"time"
)

func TestUser_DailyLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"explicit", 5, 5},
		{"zero falls back", 0, DefaultRateLimit},
		{"negative falls back", -3, DefaultRateLimit},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			u := &User{RateLimit: tt.limit}
			if got := u.DailyLimit(); got != tt.want {
				t.Errorf("DailyLimit() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestUser_IDString(t *testing.T) {
	t.Parallel()

	u := &User{ID: 42}
	if got := u.IDString(); got != "42" {
		t.Errorf("IDString() = %q, want 42", got)
	}
}

func TestStartOfDay(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("test", -5*3600)
	ts := time.Date(2024, 3, 10, 17, 45, 12, 99, loc)

	got := StartOfDay(ts)
	want := time.Date(2024, 3, 10, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("StartOfDay() = %v, want %v", got, want)
	}

	if next := NextReset(ts); !next.Equal(want.AddDate(0, 0, 1)) {
		t.Errorf("NextReset() = %v, want %v", next, want.AddDate(0, 0, 1))
	}
}

func TestPublicIDs(t *testing.T) {
	t.Parallel()

	j := &Joke{ID: 3}
	if j.PublicID() != "j3" {
		t.Errorf("joke PublicID = %q, want j3", j.PublicID())
	}

	q := &Quote{ID: 7}
	if q.PublicID() != "q7" {
		t.Errorf("quote PublicID = %q, want q7", q.PublicID())
	}
}
