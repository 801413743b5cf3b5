// Package core holds the carbon ledger domain: records, the emission factor
// table, emission arithmetic, period aggregation and tip rules.
//
// Arithmetic on factors and amounts goes through decimal values so that a
// product like 10 × 0.404 rounds to exactly 4.04 instead of drifting in the
// last binary digit.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// CalculateEmissions returns round(amount × factor, 2) for a known activity.
func CalculateEmissions(category, activity string, amount float64) (float64, error) {
	if err := ValidateActivity(category, activity); err != nil {
		return 0, err
	}
	if !(amount >= 0) || math.IsInf(amount, 0) {
		return 0, ErrInvalidAmount
	}
	f, _ := Factor(category, activity)
	emissions := f.Mul(decimal.NewFromFloat(amount)).Round(2).InexactFloat64()
	if math.IsInf(emissions, 0) {
		return 0, ErrInvalidAmount
	}
	return emissions, nil
}

// emissionsOf returns the stored emissions as a decimal. Non-finite values
// read as absent.
func emissionsOf(r ActivityRecord) (decimal.Decimal, bool) {
	if math.IsNaN(r.Emissions) || math.IsInf(r.Emissions, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(r.Emissions), true
}

// NewRecord validates input and builds the record that will be appended.
func NewRecord(in ActivityInput, id, date string) (ActivityRecord, error) {
	if err := in.Validate(); err != nil {
		return ActivityRecord{}, err
	}
	if _, err := ParseDate(date); err != nil {
		return ActivityRecord{}, err
	}
	emissions, err := CalculateEmissions(in.Category, in.Activity, in.Amount)
	if err != nil {
		return ActivityRecord{}, err
	}
	return ActivityRecord{
		ID:        id,
		Category:  in.Category,
		Activity:  in.Activity,
		Amount:    in.Amount,
		Emissions: emissions,
		Date:      date,
	}, nil
}

// ParseAmount parses a positive decimal amount typed by a user.
//
// Both dot (12.5) and comma (12,5) decimal separators are accepted.
// Zero, negative and non-numeric values are rejected with ErrInvalidAmount.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	v := d.InexactFloat64()
	if math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}
