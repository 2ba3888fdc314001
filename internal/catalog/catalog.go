// Package catalog serves the built-in demonstration tables behind the
// weather, news, currency, translation, geocoding and image endpoints.
package catalog

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// ErrUnsupported is returned for currencies or languages not in the tables.
var ErrUnsupported = errors.New("unsupported value")

// Catalog answers lookups against the static tables. Randomized values
// (unknown weather locations, forecasts) come from rnd.
type Catalog struct {
	rnd func() float64
	now func() time.Time
}

// New creates a Catalog backed by math/rand/v2 and the wall clock.
func New() *Catalog {
	return &Catalog{rnd: rand.Float64, now: time.Now}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
