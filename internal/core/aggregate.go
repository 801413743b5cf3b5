package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Period is a named rolling time window used for aggregation.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

var ErrUnknownPeriod = errors.New("unknown period")

// Periods lists the supported windows from narrowest to widest.
func Periods() []Period {
	return []Period{PeriodToday, PeriodWeek, PeriodMonth, PeriodAll}
}

// ParsePeriod accepts a period name, case-insensitively.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodAll:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
}

// WeekStart returns the Monday of the ISO week containing t.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// FilterByPeriod returns the records that fall in period relative to now, in
// ledger order. Records with an unparseable date only survive PeriodAll.
func FilterByPeriod(records []ActivityRecord, period Period, now time.Time) []ActivityRecord {
	if period == PeriodAll {
		return append([]ActivityRecord{}, records...)
	}

	today := FormatDate(now)
	var match func(date string) bool
	switch period {
	case PeriodToday:
		match = func(date string) bool { return date == today }
	case PeriodWeek:
		start := FormatDate(WeekStart(now))
		match = func(date string) bool { return date >= start }
	case PeriodMonth:
		start := FormatDate(MonthStart(now))
		match = func(date string) bool { return date >= start }
	default:
		return []ActivityRecord{}
	}

	out := []ActivityRecord{}
	for _, r := range records {
		if _, err := ParseDate(r.Date); err != nil {
			continue
		}
		if match(strings.TrimSpace(r.Date)) {
			out = append(out, r)
		}
	}
	return out
}

func sumEmissions(records []ActivityRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if e, ok := emissionsOf(r); ok {
			total = total.Add(e)
		}
	}
	return total
}

// TotalEmissions sums the emissions field, rounded to 2 decimals.
func TotalEmissions(records []ActivityRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	return sumEmissions(records).Round(2).InexactFloat64()
}

// GroupByCategory maps each category to its summed emissions.
func GroupByCategory(records []ActivityRecord) map[string]float64 {
	sums := map[string]decimal.Decimal{}
	for _, r := range records {
		e, ok := emissionsOf(r)
		if !ok {
			continue
		}
		sums[r.Category] = sums[r.Category].Add(e)
	}
	out := make(map[string]float64, len(sums))
	for k, v := range sums {
		out[k] = v.Round(2).InexactFloat64()
	}
	return out
}

// RankCategories orders a grouping by descending emissions, ties by name.
func RankCategories(groups map[string]float64) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(groups))
	for name, v := range groups {
		out = append(out, CategoryAmount{Name: name, Emissions: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Emissions != out[j].Emissions {
			return out[i].Emissions > out[j].Emissions
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// DailyEmissions sums emissions per date in ascending date order. Records
// with an unparseable date are skipped.
func DailyEmissions(records []ActivityRecord) []DailyTotal {
	sums := map[string]decimal.Decimal{}
	for _, r := range records {
		t, err := ParseDate(r.Date)
		if err != nil {
			continue
		}
		e, ok := emissionsOf(r)
		if !ok {
			continue
		}
		key := FormatDate(t)
		sums[key] = sums[key].Add(e)
	}
	out := make([]DailyTotal, 0, len(sums))
	for date, v := range sums {
		out = append(out, DailyTotal{Date: date, Emissions: v.Round(2).InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Summarize computes the dashboard totals relative to now.
func Summarize(records []ActivityRecord, now time.Time) Summary {
	today := FilterByPeriod(records, PeriodToday, now)
	return Summary{
		Today:      TotalEmissions(today),
		Week:       TotalEmissions(FilterByPeriod(records, PeriodWeek, now)),
		Month:      TotalEmissions(FilterByPeriod(records, PeriodMonth, now)),
		All:        TotalEmissions(records),
		TodayByCat: RankCategories(GroupByCategory(today)),
	}
}
