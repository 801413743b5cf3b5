// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// activity forms, the onboarding draft carried in hidden fields and the
// period query parameter.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"carbon/internal/core"
	"carbon/internal/onboarding"
)

const maxBodyBytes = 64 << 10

// Form field names.
const (
	fieldCategory = "category"
	fieldActivity = "activity"
	fieldAmount   = "amount"
	fieldPeriod   = "period"

	fieldPage     = "page"
	fieldAction   = "action"
	fieldTraveled = "traveled_today"
	fieldVehicle  = "vehicle_type"
	fieldMiles    = "miles"
	fieldLights   = "lights_hours"
)

// Onboarding actions posted by the wizard buttons.
const (
	actionNext   = "next"
	actionBack   = "back"
	actionFinish = "finish"
)

var errInvalidNumber = errors.New("enter a valid number")

// ParseActivityInput reads category, activity and amount from form values.
// Missing fields and unparseable amounts are reported with the core sentinel
// errors.
func ParseActivityInput(form url.Values) (core.ActivityInput, error) {
	return activityInput(form.Get(fieldCategory), form.Get(fieldActivity), form.Get(fieldAmount))
}

func activityInput(category, activity, amount string) (core.ActivityInput, error) {
	in := core.ActivityInput{
		Category: sanitizeInput(category),
		Activity: sanitizeInput(activity),
	}
	v, err := core.ParseAmount(amount)
	if err != nil {
		return in, err
	}
	in.Amount = v
	return in, in.Validate()
}

// ParsePeriodParam reads ?period=, defaulting to all.
func ParsePeriodParam(query url.Values) (core.Period, error) {
	v := strings.TrimSpace(query.Get(fieldPeriod))
	if v == "" {
		return core.PeriodAll, nil
	}
	return core.ParsePeriod(v)
}

// mealField is the form field holding the count for meal, e.g.
// "meal_heavy" for "Heavy meat meal".
func mealField(meal string) string {
	word := meal
	if i := strings.IndexByte(meal, ' '); i > 0 {
		word = meal[:i]
	}
	return "meal_" + strings.ToLower(word)
}

// ParseDraft rebuilds the onboarding draft from form values. Empty fields
// count as zero. The returned draft is usable even when err is non-nil.
func ParseDraft(form url.Values) (onboarding.Draft, error) {
	d := onboarding.NewDraft()
	var errs []error

	d.TraveledToday = form.Get(fieldTraveled) == "yes"
	d.VehicleType = sanitizeInput(form.Get(fieldVehicle))

	var err error
	if d.Miles, err = parseQuantity(form.Get(fieldMiles)); err != nil {
		errs = append(errs, err)
	}
	if d.LightsHours, err = parseQuantity(form.Get(fieldLights)); err != nil {
		errs = append(errs, err)
	}
	for _, meal := range onboarding.MealTypes() {
		n, err := parseCount(form.Get(mealField(meal)))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		d.Meals[meal] = n
	}

	if len(errs) > 0 {
		return d, errs[0]
	}
	return d, d.Validate()
}

// ParsePage reads the current wizard page, clamped to the valid range.
func ParsePage(form url.Values) onboarding.Page {
	n, err := strconv.Atoi(strings.TrimSpace(form.Get(fieldPage)))
	if err != nil {
		return onboarding.PageTransportation
	}
	return onboarding.Page(n).Clamp()
}

func parseQuantity(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errInvalidNumber
	}
	if v < 0 {
		return 0, onboarding.ErrNegativeValue
	}
	return v, nil
}

func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errInvalidNumber
	}
	if n < 0 {
		return 0, onboarding.ErrNegativeValue
	}
	return n, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// ActivityInput reads an activity from the parsed body.
func (p *RequestBodyParser) ActivityInput() (core.ActivityInput, error) {
	return activityInput(p.Get(fieldCategory), p.Get(fieldActivity), p.Get(fieldAmount))
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireGET is a convenience function for read-only handlers.
func RequireGET(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(w http.ResponseWriter, r *http.Request) *HTMXResponseBuilder {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
