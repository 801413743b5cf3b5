package core

import "github.com/shopspring/decimal"

const (
	maxTips = 5

	carShareThreshold  = "0.7"
	meatShareThreshold = "0.5"
	dailyEnergyLimitKg = "5"

	tipCarAlternatives = "Consider using public transportation, electric vehicles, or carpooling to reduce your gasoline car usage."
	tipTryLowCarbon    = "Try using public transportation or walking/biking for short trips - it's great for your health and the environment!"
	tipReduceMeat      = "Consider reducing meat consumption - even switching to a vegetarian or vegan diet makes a significant difference!"
	tipTryPlantBased   = "Try incorporating more plant-based meals - they have a much lower carbon footprint!"
	tipEnergySaving    = "Consider energy-saving measures like LED bulbs, better insulation, and unplugging unused electronics."
)

var (
	starterTips = []string{
		"Start tracking your activities to get personalized tips!",
		"Consider walking or biking for short trips instead of driving.",
		"Try incorporating more plant-based meals into your diet.",
	}

	generalTips = []string{
		"Turn off lights when leaving a room to save energy.",
		"Reduce, reuse, and recycle whenever possible.",
		"Every small action counts towards a more sustainable future!",
	}

	lowCarbonTransport = map[string]bool{
		ActivityBus:     true,
		ActivityTrain:   true,
		ActivityBicycle: true,
		ActivityWalking: true,
	}

	meatMeals = map[string]bool{
		ActivityHeavyMeatMeal:    true,
		ActivityModerateMeatMeal: true,
	}

	plantMeals = map[string]bool{
		ActivityVegetarianMeal: true,
		ActivityVeganMeal:      true,
	}
)

// StarterTips is the list shown before anything has been logged.
func StarterTips() []string {
	return append([]string(nil), starterTips...)
}

// GenerateTips derives up to five tips from the complete ledger. Matched
// rules come first, in a fixed order, followed by the generic pool.
func GenerateTips(records []ActivityRecord) []string {
	if len(records) == 0 {
		return StarterTips()
	}

	var tips []string

	transport := byCategory(records, CategoryTransportation)
	if len(transport) > 0 {
		car := sumWhere(transport, func(r ActivityRecord) bool { return r.Activity == ActivityGasolineCar })
		total := sumEmissions(transport)
		if car.GreaterThan(total.Mul(decimal.RequireFromString(carShareThreshold))) {
			tips = append(tips, tipCarAlternatives)
		}
		if !anyWhere(transport, func(r ActivityRecord) bool { return lowCarbonTransport[r.Activity] }) {
			tips = append(tips, tipTryLowCarbon)
		}
	}

	food := byCategory(records, CategoryFood)
	if len(food) > 0 {
		meat := sumWhere(food, func(r ActivityRecord) bool { return meatMeals[r.Activity] })
		total := sumEmissions(food)
		if meat.GreaterThan(total.Mul(decimal.RequireFromString(meatShareThreshold))) {
			tips = append(tips, tipReduceMeat)
		}
		if !anyWhere(food, func(r ActivityRecord) bool { return plantMeals[r.Activity] }) {
			tips = append(tips, tipTryPlantBased)
		}
	}

	energy := byCategory(records, CategoryHomeEnergy)
	if len(energy) > 0 {
		days := map[string]struct{}{}
		for _, r := range energy {
			days[r.Date] = struct{}{}
		}
		avg := sumEmissions(energy).Div(decimal.NewFromInt(int64(len(days))))
		if avg.GreaterThan(decimal.RequireFromString(dailyEnergyLimitKg)) {
			tips = append(tips, tipEnergySaving)
		}
	}

	all := append(tips, generalTips...)
	if len(all) > maxTips {
		all = all[:maxTips]
	}
	return all
}

func byCategory(records []ActivityRecord, category string) []ActivityRecord {
	var out []ActivityRecord
	for _, r := range records {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

func sumWhere(records []ActivityRecord, keep func(ActivityRecord) bool) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if !keep(r) {
			continue
		}
		if e, ok := emissionsOf(r); ok {
			total = total.Add(e)
		}
	}
	return total
}

func anyWhere(records []ActivityRecord, match func(ActivityRecord) bool) bool {
	for _, r := range records {
		if match(r) {
			return true
		}
	}
	return false
}
