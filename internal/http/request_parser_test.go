package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"carbon/internal/core"
	"carbon/internal/onboarding"
)

func TestParseActivityInput(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		want    core.ActivityInput
		wantErr error
	}{
		{
			name: "valid",
			form: url.Values{"category": {" Transportation "}, "activity": {"Bus"}, "amount": {"12,5"}},
			want: core.ActivityInput{Category: "Transportation", Activity: "Bus", Amount: 12.5},
		},
		{
			name:    "zero amount",
			form:    url.Values{"category": {"Transportation"}, "activity": {"Bus"}, "amount": {"0"}},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "missing amount",
			form:    url.Values{"category": {"Transportation"}, "activity": {"Bus"}},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "missing category",
			form:    url.Values{"activity": {"Bus"}, "amount": {"1"}},
			wantErr: core.ErrEmptyCategory,
		},
		{
			name:    "unknown activity",
			form:    url.Values{"category": {"Transportation"}, "activity": {"Rocket"}, "amount": {"1"}},
			wantErr: core.ErrUnknownActivity,
		},
		{
			name: "control characters stripped",
			form: url.Values{"category": {"Food & Diet\x00"}, "activity": {"Vegan meal"}, "amount": {"1"}},
			want: core.ActivityInput{Category: "Food & Diet", Activity: "Vegan meal", Amount: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseActivityInput(tt.form)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParsePeriodParam(t *testing.T) {
	tests := []struct {
		query   string
		want    core.Period
		wantErr bool
	}{
		{"", core.PeriodAll, false},
		{"period=today", core.PeriodToday, false},
		{"period=WEEK", core.PeriodWeek, false},
		{"period=month", core.PeriodMonth, false},
		{"period=year", "", true},
	}

	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		got, err := ParsePeriodParam(q)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: err = %v", tt.query, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestMealField(t *testing.T) {
	seen := map[string]bool{}
	for _, meal := range onboarding.MealTypes() {
		f := mealField(meal)
		if seen[f] {
			t.Fatalf("duplicate field %s", f)
		}
		seen[f] = true
	}
	if got := mealField("Heavy meat meal"); got != "meal_heavy" {
		t.Errorf("mealField = %q", got)
	}
}

func TestParseDraft(t *testing.T) {
	d, err := ParseDraft(url.Values{
		"traveled_today": {"yes"},
		"vehicle_type":   {"Train"},
		"miles":          {"7,5"},
		"lights_hours":   {"3"},
		"meal_moderate":  {"2"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.TraveledToday || d.VehicleType != "Train" || d.Miles != 7.5 || d.LightsHours != 3 {
		t.Fatalf("unexpected draft %+v", d)
	}
	if d.Meals["Moderate meat meal"] != 2 || d.Meals["Vegan meal"] != 0 {
		t.Fatalf("unexpected meals %v", d.Meals)
	}

	empty, err := ParseDraft(url.Values{})
	if err != nil || empty.TraveledToday || empty.Miles != 0 || len(empty.Meals) != len(onboarding.MealTypes()) {
		t.Fatalf("empty form: %+v, %v", empty, err)
	}
}

func TestParseDraftErrors(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		wantErr error
	}{
		{"negative miles", url.Values{"miles": {"-1"}}, onboarding.ErrNegativeValue},
		{"negative meals", url.Values{"meal_vegan": {"-2"}}, onboarding.ErrNegativeValue},
		{"not a number", url.Values{"lights_hours": {"lots"}}, errInvalidNumber},
		{"fractional meals", url.Values{"meal_heavy": {"1.5"}}, errInvalidNumber},
		{"unknown vehicle", url.Values{"traveled_today": {"yes"}, "vehicle_type": {"Rocket"}}, onboarding.ErrUnknownVehicle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDraft(tt.form); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParsePage(t *testing.T) {
	tests := map[string]onboarding.Page{
		"":    onboarding.PageTransportation,
		"x":   onboarding.PageTransportation,
		"0":   onboarding.PageTransportation,
		"2":   onboarding.PageHomeEnergy,
		"4":   onboarding.PageSummary,
		"100": onboarding.PageSummary,
	}
	for in, want := range tests {
		if got := ParsePage(url.Values{"page": {in}}); got != want {
			t.Errorf("ParsePage(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "name": "test", "amount": 42.5}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}

	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}

	if name := parser.Get("name"); name != "test" {
		t.Errorf("Get('name') = %q, want 'test'", name)
	}

	if amount := parser.Get("amount"); amount != "42.5" {
		t.Errorf("Get('amount') = %q, want '42.5'", amount)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=456&name=form+test&value=100"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}

	if id := parser.Get("id"); id != "456" {
		t.Errorf("Get('id') = %q, want '456'", id)
	}

	if name := parser.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
}

func TestRequestBodyParser_ActivityInput(t *testing.T) {
	body := `{"category": "Food & Diet", "activity": "Vegetarian meal", "amount": 3}`
	req := httptest.NewRequest(http.MethodPost, "/api/activities", strings.NewReader(body))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	in, err := parser.ActivityInput()
	if err != nil {
		t.Fatalf("ActivityInput() error = %v", err)
	}
	if in.Category != "Food & Diet" || in.Activity != "Vegetarian meal" || in.Amount != 3 {
		t.Errorf("unexpected input %+v", in)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequireMethod(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		allowed []string
		wantErr bool
	}{
		{"POST allowed", http.MethodPost, []string{http.MethodPost}, false},
		{"DELETE allowed with multiple", http.MethodDelete, []string{http.MethodDelete, http.MethodPost}, false},
		{"GET not allowed", http.MethodGet, []string{http.MethodPost}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			result := RequireMethod(req, tt.allowed...)

			if tt.wantErr && result == nil {
				t.Error("Expected error response but got nil")
			}
			if !tt.wantErr && result != nil {
				t.Error("Expected nil but got error response")
			}
		})
	}
}

func TestRequirePOST(t *testing.T) {
	postReq := httptest.NewRequest(http.MethodPost, "/test", nil)
	if result := RequirePOST(postReq); result != nil {
		t.Error("RequirePOST should allow POST requests")
	}

	getReq := httptest.NewRequest(http.MethodGet, "/test", nil)
	if result := RequirePOST(getReq); result == nil {
		t.Error("RequirePOST should reject GET requests")
	}
}

func TestRequireGET(t *testing.T) {
	tests := []struct {
		method  string
		wantErr bool
	}{
		{http.MethodGet, false},
		{http.MethodHead, false},
		{http.MethodPost, true},
		{http.MethodPut, true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			result := RequireGET(req)

			if tt.wantErr && result == nil {
				t.Error("Expected error response but got nil")
			}
			if !tt.wantErr && result != nil {
				t.Error("Expected nil but got error response")
			}
		})
	}
}

func TestParseFormOrFail(t *testing.T) {
	// Valid form request
	body := "field=value"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	result := ParseFormOrFail(httptest.NewRecorder(), req)
	if result != nil {
		t.Error("Expected nil for valid form, got error response")
	}

	// Verify form was parsed
	if req.Form.Get("field") != "value" {
		t.Error("Form was not parsed correctly")
	}
}
