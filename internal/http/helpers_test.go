package http

import (
	"strings"
	"testing"

	"carbon/internal/core"
)

func TestCapitalize(t *testing.T) {
	tests := map[string]string{
		"":                   "",
		"gasoline car":       "Gasoline car",
		"TV / entertainment": "Tv / entertainment",
		"Streaming (HD)":     "Streaming (hd)",
		"électrique":         "Électrique",
	}
	for in, want := range tests {
		if got := capitalize(in); got != want {
			t.Errorf("capitalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBarWidth(t *testing.T) {
	tests := []struct {
		value, max float64
		want       int
	}{
		{0, 10, 0},
		{5, 0, 0},
		{10, 10, 100},
		{5, 10, 50},
		{0.01, 10, 2},
		{0.7, 4.04, 17},
		{20, 10, 100},
	}
	for _, tt := range tests {
		if got := barWidth(tt.value, tt.max); got != tt.want {
			t.Errorf("barWidth(%v, %v) = %d, want %d", tt.value, tt.max, got, tt.want)
		}
	}
}

func TestFormatting(t *testing.T) {
	if got := formatKg(4.04); got != "4.04" {
		t.Errorf("formatKg = %q", got)
	}
	if got := formatKg(0); got != "0.00" {
		t.Errorf("formatKg = %q", got)
	}
	if got := formatNumber(16); got != "16" {
		t.Errorf("formatNumber = %q", got)
	}
	if got := formatNumber(2.5); got != "2.5" {
		t.Errorf("formatNumber = %q", got)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Bus\x00\x07 "); got != "Bus" {
		t.Errorf("sanitizeInput = %q", got)
	}
	if got := sanitizeInput("a\tb"); got != "a\tb" {
		t.Errorf("sanitizeInput removed a tab: %q", got)
	}
}

func TestGenerateRequestID(t *testing.T) {
	a, b := generateRequestID(), generateRequestID()
	if !strings.HasPrefix(a, "req_") || len(a) != len("req_")+16 {
		t.Errorf("unexpected id %q", a)
	}
	if a == b {
		t.Error("request ids should differ")
	}
}

func TestPolylinePoints(t *testing.T) {
	if got := polylinePoints(nil, 0); got != "" {
		t.Errorf("empty series = %q", got)
	}

	one := polylinePoints([]core.DailyTotal{{Date: "2025-03-12", Emissions: 2}}, 2)
	if one != "300.0,10.0" {
		t.Errorf("single point = %q", one)
	}

	two := polylinePoints([]core.DailyTotal{
		{Date: "2025-03-11", Emissions: 0},
		{Date: "2025-03-12", Emissions: 4},
	}, 4)
	if two != "10.0,190.0 590.0,10.0" {
		t.Errorf("two points = %q", two)
	}
}

func TestNewStatsViewCapsProgress(t *testing.T) {
	v := newStatsView(core.Summary{Today: 40}, 16)
	if v.Progress != 100 {
		t.Errorf("progress = %d", v.Progress)
	}
	v = newStatsView(core.Summary{Today: 4}, 16)
	if v.Progress != 25 || v.Target != "16" || v.TargetFixed != "16.00" {
		t.Errorf("unexpected view %+v", v)
	}
}
