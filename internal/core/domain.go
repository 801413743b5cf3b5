package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for persisted records.
const DateLayout = "2006-01-02"

type (
	// ActivityRecord is one logged activity. Emissions are computed once at
	// creation time and never recomputed if factors change.
	ActivityRecord struct {
		ID        string  `json:"id"`
		Category  string  `json:"type"`
		Activity  string  `json:"subtype"`
		Amount    float64 `json:"amount"`
		Emissions float64 `json:"emissions"`
		Date      string  `json:"date"`
	}

	// Document is the whole persisted state.
	Document struct {
		Activities     []ActivityRecord `json:"activities"`
		OnboardingDone bool             `json:"onboarding_done"`
	}

	// ActivityInput is an unvalidated request to log an activity.
	ActivityInput struct {
		Category string
		Activity string
		Amount   float64
	}
)

var (
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrUnknownCategory  = errors.New("unknown activity category")
	ErrUnknownActivity  = errors.New("unknown activity for category")
	ErrEmptyCategory    = errors.New("empty activity category")
	ErrEmptyActivity    = errors.New("empty activity")
	ErrInvalidDate      = errors.New("invalid date")
	ErrRecordIncomplete = errors.New("activity record is incomplete")
)

// EmptyDocument returns the state used when nothing has been persisted yet.
func EmptyDocument() Document {
	return Document{Activities: []ActivityRecord{}}
}

// Normalize back-fills fields missing from older files.
func (d Document) Normalize() Document {
	if d.Activities == nil {
		d.Activities = []ActivityRecord{}
	}
	return d
}

// Clone returns a copy whose activity slice can be mutated independently.
func (d Document) Clone() Document {
	out := Document{OnboardingDone: d.OnboardingDone}
	out.Activities = make([]ActivityRecord, len(d.Activities))
	copy(out.Activities, d.Activities)
	return out
}

// Validate rejects input before it reaches the ledger.
func (in ActivityInput) Validate() error {
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(in.Activity) == "" {
		return ErrEmptyActivity
	}
	if !(in.Amount > 0) {
		return ErrInvalidAmount
	}
	return ValidateActivity(in.Category, in.Activity)
}

// Validate checks a stored record for the fields every consumer relies on.
func (r ActivityRecord) Validate() error {
	if r.ID == "" || r.Category == "" || r.Activity == "" {
		return ErrRecordIncomplete
	}
	if !(r.Amount >= 0) || !(r.Emissions >= 0) || math.IsInf(r.Amount, 0) || math.IsInf(r.Emissions, 0) {
		return ErrInvalidAmount
	}
	if _, err := ParseDate(r.Date); err != nil {
		return err
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD string in the local time zone.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate renders t as a calendar date string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
