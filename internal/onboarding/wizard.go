// Package onboarding implements the four-page first-run questionnaire that
// estimates today's footprint and seeds the ledger with it.
//
// The wizard is a value: every transition returns a new Wizard, and callers
// carry it between requests themselves (the web UI uses hidden form fields).
package onboarding

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"carbon/internal/core"
)

// Page numbers, in display order.
type Page int

const (
	PageTransportation Page = iota + 1
	PageHomeEnergy
	PageFood
	PageSummary
)

const (
	firstPage = PageTransportation
	lastPage  = PageSummary
)

var (
	ErrUnknownVehicle = errors.New("unknown vehicle type")
	ErrUnknownMeal    = errors.New("unknown meal type")
	ErrNegativeValue  = errors.New("values cannot be negative")
)

// Title is the heading shown for the page.
func (p Page) Title() string {
	switch p {
	case PageTransportation:
		return "Page 1: Transportation"
	case PageHomeEnergy:
		return "Page 2: Home Energy"
	case PageFood:
		return "Page 3: Food & Diet"
	case PageSummary:
		return "Page 4: Today's Estimated Carbon Footprint"
	default:
		return ""
	}
}

// Clamp forces p into the valid page range.
func (p Page) Clamp() Page {
	if p < firstPage {
		return firstPage
	}
	if p > lastPage {
		return lastPage
	}
	return p
}

// Draft holds the answers collected so far.
type Draft struct {
	TraveledToday bool
	VehicleType   string
	Miles         float64
	LightsHours   float64
	Meals         map[string]int
}

// MealTypes lists the meal counters asked for on the food page.
func MealTypes() []string {
	return core.ActivityNames(core.CategoryFood)
}

// VehicleOptions lists the vehicles offered on the transportation page.
func VehicleOptions() []string {
	return core.ActivityNames(core.CategoryTransportation)
}

// NewDraft returns a draft with every meal counter at zero.
func NewDraft() Draft {
	meals := make(map[string]int)
	for _, m := range MealTypes() {
		meals[m] = 0
	}
	return Draft{Meals: meals}
}

// Validate rejects drafts that could not be committed.
func (d Draft) Validate() error {
	if d.Miles < 0 || d.LightsHours < 0 {
		return ErrNegativeValue
	}
	if d.TraveledToday && d.VehicleType != "" {
		if err := core.ValidateActivity(core.CategoryTransportation, d.VehicleType); err != nil {
			return fmt.Errorf("%w: %q", ErrUnknownVehicle, d.VehicleType)
		}
	}
	for meal, n := range d.Meals {
		if n < 0 {
			return ErrNegativeValue
		}
		if err := core.ValidateActivity(core.CategoryFood, meal); err != nil {
			return fmt.Errorf("%w: %q", ErrUnknownMeal, meal)
		}
	}
	return nil
}

func (d Draft) hasTrip() bool {
	return d.TraveledToday && d.VehicleType != "" && d.Miles > 0
}

// Estimate is the page 4 breakdown in kg CO₂.
type Estimate struct {
	Transport float64
	Home      float64
	Food      float64
	Total     float64
}

// Estimate prices the draft with the factor table. Components are summed
// unrounded and only the total is rounded to 2 decimals.
func (d Draft) Estimate() Estimate {
	transport := decimal.Zero
	if d.hasTrip() {
		if f, ok := core.Factor(core.CategoryTransportation, d.VehicleType); ok {
			transport = f.Mul(decimal.NewFromFloat(d.Miles))
		}
	}

	home := decimal.Zero
	if d.LightsHours > 0 {
		f, _ := core.Factor(core.CategoryHomeEnergy, core.ActivityLighting)
		home = f.Mul(decimal.NewFromFloat(d.LightsHours))
	}

	food := decimal.Zero
	for meal, n := range d.Meals {
		if n <= 0 {
			continue
		}
		if f, ok := core.Factor(core.CategoryFood, meal); ok {
			food = food.Add(f.Mul(decimal.NewFromInt(int64(n))))
		}
	}

	return Estimate{
		Transport: transport.Round(2).InexactFloat64(),
		Home:      home.Round(2).InexactFloat64(),
		Food:      food.Round(2).InexactFloat64(),
		Total:     transport.Add(home).Add(food).Round(2).InexactFloat64(),
	}
}

// ContextText relates a daily total to something familiar.
func ContextText(total float64) string {
	switch {
	case total < 1:
		return "That's about the same as charging your phone 120 times!"
	case total < 5:
		return "That's about the same as charging your phone over 200 times!"
	case total < 10:
		return "That's about the same as watching 15 hours of HD video streaming."
	case total < 20:
		return "That's over 3× the weight of a newborn baby, in carbon!"
	case total < 50:
		return "That's about the same emissions as a short domestic flight."
	default:
		return "That's roughly equivalent to driving a car for over 100 miles!"
	}
}

// Records turns the draft into ledger records dated date. Zero answers
// produce no record. Meals follow MealTypes order.
func (d Draft) Records(date string, newID func() string) ([]core.ActivityRecord, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var inputs []core.ActivityInput
	if d.hasTrip() {
		inputs = append(inputs, core.ActivityInput{Category: core.CategoryTransportation, Activity: d.VehicleType, Amount: d.Miles})
	}
	if d.LightsHours > 0 {
		inputs = append(inputs, core.ActivityInput{Category: core.CategoryHomeEnergy, Activity: core.ActivityLighting, Amount: d.LightsHours})
	}
	for _, meal := range MealTypes() {
		if n := d.Meals[meal]; n > 0 {
			inputs = append(inputs, core.ActivityInput{Category: core.CategoryFood, Activity: meal, Amount: float64(n)})
		}
	}

	records := make([]core.ActivityRecord, 0, len(inputs))
	for _, in := range inputs {
		r, err := core.NewRecord(in, newID(), date)
		if err != nil {
			return nil, fmt.Errorf("onboarding %s: %w", in.Activity, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// Wizard is the questionnaire position plus the answers so far.
type Wizard struct {
	Page  Page
	Draft Draft
}

// New starts on the first page with an empty draft.
func New() Wizard {
	return Wizard{Page: firstPage, Draft: NewDraft()}
}

// Next advances one page, stopping at the summary.
func (w Wizard) Next() Wizard {
	w.Page = (w.Page + 1).Clamp()
	return w
}

// Back goes back one page, stopping at the first.
func (w Wizard) Back() Wizard {
	w.Page = (w.Page - 1).Clamp()
	return w
}

func (w Wizard) IsFirst() bool { return w.Page <= firstPage }
func (w Wizard) IsLast() bool  { return w.Page >= lastPage }
