package catalog

import (
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

type weatherSample struct {
	temperature float64
	condition   string
	humidity    int
	windSpeed   float64
}

var weatherTable = map[string]weatherSample{
	"london":  {12.5, "Clear sky", 65, 8.3},
	"newyork": {22.8, "Partly cloudy", 45, 10.1},
	"tokyo":   {18.2, "Rain", 80, 5.5},
	"paris":   {15.7, "Overcast", 70, 7.8},
	"sydney":  {25.5, "Sunny", 50, 12.3},
}

var forecastConditions = []string{"Clear", "Partly cloudy", "Overcast", "Rain", "Thunderstorm", "Sunny"}

// CurrentWeather is the /api/weather/current payload.
type CurrentWeather struct {
	Location    string    `json:"location"`
	Temperature float64   `json:"temperature"`
	Condition   string    `json:"condition"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"wind_speed"`
	Timestamp   time.Time `json:"timestamp"`
}

// TemperatureRange is a day's min/max.
type TemperatureRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ForecastDay is one entry of a forecast.
type ForecastDay struct {
	Date                string           `json:"date"`
	Temperature         TemperatureRange `json:"temperature"`
	Condition           string           `json:"condition"`
	Humidity            int              `json:"humidity"`
	WindSpeed           float64          `json:"wind_speed"`
	PrecipitationChance int              `json:"precipitation_chance"`
}

// Forecast is the /api/weather/forecast payload.
type Forecast struct {
	Location     string        `json:"location"`
	ForecastDays int           `json:"forecast_days"`
	Forecast     []ForecastDay `json:"forecast"`
	Timestamp    time.Time     `json:"timestamp"`
}

// normalizeLocation lowercases and strips all whitespace: "New York" -> "newyork".
func normalizeLocation(location string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, location)
}

func displayLocation(location string) string {
	r, size := utf8.DecodeRuneInString(location)
	if r == utf8.RuneError {
		return location
	}
	return string(unicode.ToUpper(r)) + location[size:]
}

func (c *Catalog) sample(location string) weatherSample {
	if s, ok := weatherTable[normalizeLocation(location)]; ok {
		return s
	}
	return weatherSample{
		temperature: 15 + c.rnd()*10,
		condition:   "Clear",
		humidity:    40 + int(math.Floor(c.rnd()*40)),
		windSpeed:   5 + c.rnd()*10,
	}
}

// Current returns current conditions. Unknown locations get randomized values.
func (c *Catalog) Current(location string) CurrentWeather {
	s := c.sample(location)
	return CurrentWeather{
		Location:    displayLocation(location),
		Temperature: s.temperature,
		Condition:   s.condition,
		Humidity:    s.humidity,
		WindSpeed:   s.windSpeed,
		Timestamp:   c.now().UTC(),
	}
}

// Forecast returns days entries starting today, jittered around the
// location's base sample.
func (c *Catalog) Forecast(location string, days int) Forecast {
	base := c.sample(location)
	now := c.now().UTC()

	out := make([]ForecastDay, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, ForecastDay{
			Date: now.AddDate(0, 0, i).Format("2006-01-02"),
			Temperature: TemperatureRange{
				Min: round(base.temperature-5+c.rnd()*3, 1),
				Max: round(base.temperature+2+c.rnd()*5, 1),
			},
			Condition:           forecastConditions[int(c.rnd()*float64(len(forecastConditions)))%len(forecastConditions)],
			Humidity:            int(math.Floor(float64(base.humidity) + c.rnd()*20 - 10)),
			WindSpeed:           round(base.windSpeed+c.rnd()*4-2, 1),
			PrecipitationChance: int(c.rnd() * 100),
		})
	}

	return Forecast{
		Location:     displayLocation(location),
		ForecastDays: days,
		Forecast:     out,
		Timestamp:    now,
	}
}
