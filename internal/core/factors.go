package core

import "github.com/shopspring/decimal"

// Category names used by the factor table and the tip rules.
const (
	CategoryTransportation = "Transportation"
	CategoryHomeEnergy     = "Home Energy"
	CategoryHotShower      = "Hot Shower"
	CategoryFood           = "Food & Diet"
	CategoryDigital        = "Digital & Technology Use"
)

// Activity names referenced outside the table.
const (
	ActivityGasolineCar      = "Gasoline car"
	ActivityBus              = "Bus"
	ActivityTrain            = "Train"
	ActivityBicycle          = "Bicycle"
	ActivityWalking          = "Walking"
	ActivityLighting         = "Lighting"
	ActivityHeavyMeatMeal    = "Heavy meat meal"
	ActivityModerateMeatMeal = "Moderate meat meal"
	ActivityVegetarianMeal   = "Vegetarian meal"
	ActivityVeganMeal        = "Vegan meal"
)

type (
	// EmissionFactor is kg CO₂ per unit of an activity.
	EmissionFactor struct {
		Activity string
		Factor   decimal.Decimal
	}

	// Category groups activities that share a unit of measure.
	Category struct {
		Name      string
		Unit      string
		InputType string
		Formula   string
		Factors   []EmissionFactor
	}
)

func factor(name, value string) EmissionFactor {
	return EmissionFactor{Activity: name, Factor: decimal.RequireFromString(value)}
}

var factorTable = []Category{
	{
		Name:      CategoryTransportation,
		Unit:      "kg CO₂ per mile",
		InputType: "miles driven today",
		Formula:   "CO₂ = miles × emission factor",
		Factors: []EmissionFactor{
			factor(ActivityGasolineCar, "0.404"),
			factor("Hybrid car", "0.25"),
			factor("Electric car", "0.18"),
			factor(ActivityBus, "0.089"),
			factor(ActivityTrain, "0.041"),
			factor("Short flight", "0.255"),
			factor("Long flight", "0.195"),
			factor("Motorbike", "0.09"),
			factor(ActivityBicycle, "0"),
			factor(ActivityWalking, "0"),
		},
	},
	{
		Name:      CategoryHomeEnergy,
		Unit:      "kg CO₂ per hour",
		InputType: "hours used today",
		Formula:   "CO₂ = hours × emission factor",
		Factors: []EmissionFactor{
			factor(ActivityLighting, "0.023"),
			factor("Air conditioning / heating", "1.2"),
			factor("Kitchen appliances", "0.3"),
			factor("TV / entertainment", "0.08"),
			factor("Computer / laptop", "0.05"),
			factor("General home use", "0.45"),
		},
	},
	{
		Name:      CategoryHotShower,
		Unit:      "kg CO₂ per minute",
		InputType: "shower minutes today",
		Formula:   "CO₂ = shower_minutes × 0.18 kg CO₂",
		Factors: []EmissionFactor{
			factor("Taking a hot shower", "0.18"),
		},
	},
	{
		Name:      CategoryFood,
		Unit:      "kg CO₂ per meal",
		InputType: "number of meals today",
		Formula:   "CO₂ = meals × emission factor",
		Factors: []EmissionFactor{
			factor(ActivityHeavyMeatMeal, "2.5"),
			factor(ActivityModerateMeatMeal, "1.7"),
			factor(ActivityVegetarianMeal, "1.0"),
			factor(ActivityVeganMeal, "0.7"),
		},
	},
	{
		Name:      CategoryDigital,
		Unit:      "kg CO₂ per hour/action",
		InputType: "hours used or number of actions today",
		Formula:   "CO₂ = hours_or_actions × emission factor",
		Factors: []EmissionFactor{
			factor("Streaming (HD)", "0.036"),
			factor("Computer use", "0.05"),
			factor("Smartphone charging", "0.005"),
			factor("Sending emails", "0.00005"),
		},
	},
}

var factorIndex = buildFactorIndex(factorTable)

func buildFactorIndex(table []Category) map[string]map[string]decimal.Decimal {
	idx := make(map[string]map[string]decimal.Decimal, len(table))
	for _, c := range table {
		m := make(map[string]decimal.Decimal, len(c.Factors))
		for _, f := range c.Factors {
			m[f.Activity] = f.Factor
		}
		idx[c.Name] = m
	}
	return idx
}

// Categories returns the factor table in display order. The returned slice is
// a copy; the table itself is immutable.
func Categories() []Category {
	out := make([]Category, len(factorTable))
	for i, c := range factorTable {
		c.Factors = append([]EmissionFactor(nil), c.Factors...)
		out[i] = c
	}
	return out
}

// CategoryNames lists category names in display order.
func CategoryNames() []string {
	names := make([]string, len(factorTable))
	for i, c := range factorTable {
		names[i] = c.Name
	}
	return names
}

// LookupCategory returns the named category.
func LookupCategory(name string) (Category, bool) {
	for _, c := range Categories() {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// ActivityNames lists the activities of a category in display order.
func ActivityNames(category string) []string {
	c, ok := LookupCategory(category)
	if !ok {
		return nil
	}
	names := make([]string, len(c.Factors))
	for i, f := range c.Factors {
		names[i] = f.Activity
	}
	return names
}

// Factor looks up the emission factor for an activity. Absent lookups are a
// caller error and report false.
func Factor(category, activity string) (decimal.Decimal, bool) {
	acts, ok := factorIndex[category]
	if !ok {
		return decimal.Zero, false
	}
	f, ok := acts[activity]
	return f, ok
}

// ValidateActivity reports whether the pair exists in the factor table.
func ValidateActivity(category, activity string) error {
	acts, ok := factorIndex[category]
	if !ok {
		return ErrUnknownCategory
	}
	if _, ok := acts[activity]; !ok {
		return ErrUnknownActivity
	}
	return nil
}
