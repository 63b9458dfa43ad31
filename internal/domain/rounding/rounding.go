// Package rounding converts exact accumulators into presented values.
//
// Accumulation happens on time.Duration and decimal.Decimal; values are rounded
// half away from zero to two places only when a report row is built.
package rounding

import (
	"time"

	"github.com/shopspring/decimal"
)

const places = 2

var msPerHour = decimal.NewFromInt(int64(time.Hour / time.Millisecond)) //nolint:gochecknoglobals // constant divisor

// Hours converts d to hours at millisecond resolution, rounded to two places.
func Hours(d time.Duration) float64 {
	return HoursDecimal(d).Round(places).InexactFloat64()
}

// HoursDecimal converts d to unrounded hours at millisecond resolution.
func HoursDecimal(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(d.Milliseconds()).Div(msPerHour)
}

// Amount rounds v to two places.
func Amount(v decimal.Decimal) float64 {
	return v.Round(places).InexactFloat64()
}

// Float rounds a float64 to two places.
func Float(v float64) float64 {
	return Amount(decimal.NewFromFloat(v))
}
