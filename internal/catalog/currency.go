package catalog

import (
	"fmt"
	"strings"
	"time"
)

var currencyRates = map[string]float64{
	"USD": 1.0,
	"EUR": 0.9125,
	"GBP": 0.7821,
	"JPY": 139.42,
	"CAD": 1.3582,
	"AUD": 1.4921,
	"CHF": 0.8955,
	"CNY": 6.9123,
	"INR": 82.456,
	"BRL": 5.1842,
}

// RateTable is the /api/currency/rates payload.
type RateTable struct {
	Base      string             `json:"base"`
	Date      string             `json:"date"`
	Timestamp time.Time          `json:"timestamp"`
	Rates     map[string]float64 `json:"rates"`
}

// Conversion is the /api/currency/convert payload.
type Conversion struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    float64   `json:"amount"`
	Result    float64   `json:"result"`
	Rate      float64   `json:"rate"`
	Timestamp time.Time `json:"timestamp"`
}

// Rates returns every rate relative to base, rounded to 6 places.
func (c *Catalog) Rates(base string) (RateTable, error) {
	base = strings.ToUpper(base)
	baseRate, ok := currencyRates[base]
	if !ok {
		return RateTable{}, fmt.Errorf("%w: base currency %s", ErrUnsupported, base)
	}

	rates := make(map[string]float64, len(currencyRates))
	for code, r := range currencyRates {
		rates[code] = round(r/baseRate, 6)
	}

	now := c.now().UTC()
	return RateTable{
		Base:      base,
		Date:      now.Format("2006-01-02"),
		Timestamp: now,
		Rates:     rates,
	}, nil
}

// Convert converts amount from one currency to another. The result is
// rounded to 2 places and the rate to 6.
func (c *Catalog) Convert(from, to string, amount float64) (Conversion, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	fromRate, ok := currencyRates[from]
	if !ok {
		return Conversion{}, fmt.Errorf("%w: source currency %s", ErrUnsupported, from)
	}
	toRate, ok := currencyRates[to]
	if !ok {
		return Conversion{}, fmt.Errorf("%w: target currency %s", ErrUnsupported, to)
	}

	rate := toRate / fromRate
	return Conversion{
		From:      from,
		To:        to,
		Amount:    amount,
		Result:    round(amount*rate, 2),
		Rate:      round(rate, 6),
		Timestamp: c.now().UTC(),
	}, nil
}
