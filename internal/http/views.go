package http

import (
	"fmt"
	"strings"

	"carbon/internal/core"
)

type indexView struct {
	Sections []section
	Today    string
}

type optionsView struct {
	Category   string
	Activities []string
	InputLabel string
}

type trackView struct {
	Categories []string
	Selected   string
	Options    optionsView
}

type barRow struct {
	Label string
	Value string
	Width int
}

type statsView struct {
	Today       string
	Week        string
	Month       string
	Target      string
	TargetFixed string
	Progress    int
	Rows        []barRow
}

type historyRow struct {
	Entry     int
	Action    string
	Category  string
	Date      string
	Emissions string
}

type tipView struct {
	Number int
	Text   string
}

type chartsView struct {
	Daily      []barRow
	Points     string
	Categories []barRow
}

// Chart canvas size in SVG user units.
const (
	chartWidth  = 600
	chartHeight = 200
	chartPad    = 10
)

func newOptionsView(category core.Category) optionsView {
	activities := make([]string, 0, len(category.Factors))
	for _, f := range category.Factors {
		activities = append(activities, f.Activity)
	}
	return optionsView{
		Category:   category.Name,
		Activities: activities,
		InputLabel: fmt.Sprintf("%s (%s)", category.InputType, category.Unit),
	}
}

func newStatsView(sum core.Summary, target float64) statsView {
	progress := 0
	if target > 0 {
		progress = int(sum.Today / target * 100)
		if progress > 100 {
			progress = 100
		}
	}
	v := statsView{
		Today:       formatKg(sum.Today),
		Week:        formatKg(sum.Week),
		Month:       formatKg(sum.Month),
		Target:      formatNumber(target),
		TargetFixed: formatKg(target),
		Progress:    progress,
	}
	v.Rows = categoryBars(sum.TodayByCat)
	return v
}

func categoryBars(ranked []core.CategoryAmount) []barRow {
	var max float64
	for _, c := range ranked {
		if c.Emissions > max {
			max = c.Emissions
		}
	}
	rows := make([]barRow, 0, len(ranked))
	for _, c := range ranked {
		rows = append(rows, barRow{Label: c.Name, Value: formatKg(c.Emissions), Width: barWidth(c.Emissions, max)})
	}
	return rows
}

func newHistoryRows(records []core.ActivityRecord) []historyRow {
	rows := make([]historyRow, 0, len(records))
	for i, r := range records {
		rows = append(rows, historyRow{
			Entry:     i + 1,
			Action:    capitalize(r.Activity),
			Category:  r.Category,
			Date:      r.Date,
			Emissions: formatKg(core.Round2(r.Emissions)),
		})
	}
	return rows
}

func newTipViews(tips []string) []tipView {
	out := make([]tipView, 0, len(tips))
	for i, t := range tips {
		out = append(out, tipView{Number: i + 1, Text: t})
	}
	return out
}

func newChartsView(daily []core.DailyTotal, byCategory []core.CategoryAmount) chartsView {
	var max float64
	for _, d := range daily {
		if d.Emissions > max {
			max = d.Emissions
		}
	}
	v := chartsView{Categories: categoryBars(byCategory)}
	for _, d := range daily {
		v.Daily = append(v.Daily, barRow{Label: d.Date, Value: formatKg(d.Emissions), Width: barWidth(d.Emissions, max)})
	}
	v.Points = polylinePoints(daily, max)
	return v
}

// polylinePoints lays the daily series out left to right on the chart canvas.
func polylinePoints(daily []core.DailyTotal, max float64) string {
	if len(daily) == 0 {
		return ""
	}
	inner := float64(chartHeight - 2*chartPad)
	step := 0.0
	if len(daily) > 1 {
		step = float64(chartWidth-2*chartPad) / float64(len(daily)-1)
	}

	points := make([]string, 0, len(daily))
	for i, d := range daily {
		x := float64(chartPad) + step*float64(i)
		if len(daily) == 1 {
			x = chartWidth / 2
		}
		y := float64(chartHeight - chartPad)
		if max > 0 {
			y -= d.Emissions / max * inner
		}
		points = append(points, fmt.Sprintf("%.1f,%.1f", x, y))
	}
	return strings.Join(points, " ")
}
