// Package storage defines the ledger persistence port and the compositions
// shared by every backend.
package storage

import (
	"context"
	"fmt"

	"carbon/internal/core"
)

// LedgerStore persists the whole ledger document.
//
// Load never fails: a missing or unusable document reads as the empty one.
// Save replaces the stored document atomically or leaves it untouched and
// returns the error.
type LedgerStore interface {
	Load(ctx context.Context) core.Document
	Save(ctx context.Context, doc core.Document) error
}

// Append loads the document, adds records at the end and saves it.
func Append(ctx context.Context, s LedgerStore, records ...core.ActivityRecord) error {
	if len(records) == 0 {
		return nil
	}
	doc := s.Load(ctx).Clone()
	doc.Activities = append(doc.Activities, records...)
	if err := s.Save(ctx, doc); err != nil {
		return fmt.Errorf("append %d activities: %w", len(records), err)
	}
	return nil
}

// Clear empties the activity list and returns how many records were dropped.
// The onboarding flag is kept.
func Clear(ctx context.Context, s LedgerStore) (int, error) {
	doc := s.Load(ctx)
	removed := len(doc.Activities)
	doc.Activities = []core.ActivityRecord{}
	if err := s.Save(ctx, doc); err != nil {
		return 0, fmt.Errorf("clear activities: %w", err)
	}
	return removed, nil
}

// CompleteOnboarding appends records and sets the onboarding flag in a
// single save.
func CompleteOnboarding(ctx context.Context, s LedgerStore, records ...core.ActivityRecord) error {
	doc := s.Load(ctx).Clone()
	doc.Activities = append(doc.Activities, records...)
	doc.OnboardingDone = true
	if err := s.Save(ctx, doc); err != nil {
		return fmt.Errorf("save onboarding: %w", err)
	}
	return nil
}
