package catalog

import (
	"math"
	"strings"
)

// Coordinates is a lat/lon pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds is a bounding box.
type Bounds struct {
	NE Coordinates `json:"ne"`
	SW Coordinates `json:"sw"`
}

type place struct {
	name        string
	formatted   string
	coordinates Coordinates
	bounds      Bounds
}

// places is ordered; the first entry is the geocode fallback.
var places = []place{
	{"New York City", "New York City, NY, USA", Coordinates{40.7128, -74.0060}, Bounds{Coordinates{40.9176, -73.7004}, Coordinates{40.4774, -74.2591}}},
	{"London", "London, UK", Coordinates{51.5074, -0.1278}, Bounds{Coordinates{51.6769, 0.0056}, Coordinates{51.3141, -0.3441}}},
	{"Tokyo", "Tokyo, Japan", Coordinates{35.6762, 139.6503}, Bounds{Coordinates{35.8178, 139.9191}, Coordinates{35.5478, 139.5323}}},
	{"Paris", "Paris, France", Coordinates{48.8566, 2.3522}, Bounds{Coordinates{48.9021, 2.4699}, Coordinates{48.8146, 2.2241}}},
	{"Sydney", "Sydney, NSW, Australia", Coordinates{-33.8688, 151.2093}, Bounds{Coordinates{-33.5782, 151.3435}, Coordinates{-34.1183, 150.5209}}},
}

const geocodeApproxNote = "Location approximated due to no exact match"

// Geocoded is the /api/location/geocode payload.
type Geocoded struct {
	Query       string      `json:"query"`
	Location    string      `json:"location"`
	Coordinates Coordinates `json:"coordinates"`
	Bounds      Bounds      `json:"bounds"`
	Note        string      `json:"note,omitempty"`
}

// Distance describes how far a reverse lookup landed from the query.
type Distance struct {
	ToKnownLocation Coordinates `json:"to_known_location"`
	Unit            string      `json:"unit"`
}

// Reversed is the /api/location/reverse payload.
type Reversed struct {
	Coordinates Coordinates `json:"coordinates"`
	Location    string      `json:"location"`
	Distance    Distance    `json:"distance"`
}

// Geocode returns the first place whose name appears in address. A miss
// falls back to the first place with an approximation note.
func (c *Catalog) Geocode(address string) Geocoded {
	lower := strings.ToLower(address)
	for _, p := range places {
		if strings.Contains(lower, strings.ToLower(p.name)) {
			return Geocoded{Query: address, Location: p.formatted, Coordinates: p.coordinates, Bounds: p.bounds}
		}
	}
	p := places[0]
	return Geocoded{
		Query:       address,
		Location:    p.formatted,
		Coordinates: p.coordinates,
		Bounds:      p.bounds,
		Note:        geocodeApproxNote,
	}
}

// Reverse returns the place nearest to lat/lon by planar distance in degrees.
func (c *Catalog) Reverse(lat, lon float64) Reversed {
	best := places[0]
	bestDist := math.Inf(1)
	for _, p := range places {
		d := math.Hypot(p.coordinates.Lat-lat, p.coordinates.Lon-lon)
		if d < bestDist {
			best, bestDist = p, d
		}
	}
	return Reversed{
		Coordinates: Coordinates{Lat: lat, Lon: lon},
		Location:    best.formatted,
		Distance:    Distance{ToKnownLocation: best.coordinates, Unit: "degrees"},
	}
}
