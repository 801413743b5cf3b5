package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon/internal/core"
	"carbon/internal/storage"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "carbon.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestEmptyDatabase(t *testing.T) {
	s, _ := openTemp(t)
	assert.Equal(t, core.EmptyDocument(), s.Load(context.Background()))
	assert.NoError(t, s.Ping(context.Background()))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	doc := core.Document{
		Activities: []core.ActivityRecord{
			{ID: "b", Category: core.CategoryFood, Activity: core.ActivityVeganMeal, Amount: 1, Emissions: 0.7, Date: "2025-03-12"},
			{ID: "a", Category: core.CategoryTransportation, Activity: core.ActivityBus, Amount: 10, Emissions: 0.89, Date: "2025-03-11"},
		},
		OnboardingDone: true,
	}
	require.NoError(t, s.Save(ctx, doc))
	assert.Equal(t, doc, s.Load(ctx))

	// Save replaces rather than merges.
	doc.Activities = doc.Activities[1:]
	require.NoError(t, s.Save(ctx, doc))
	assert.Equal(t, doc, s.Load(ctx))
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	s, path := openTemp(t)
	require.NoError(t, storage.Append(ctx, s, core.ActivityRecord{ID: "x", Category: core.CategoryHotShower, Activity: "Taking a hot shower", Amount: 3, Emissions: 0.54, Date: "2025-03-12"}))
	require.NoError(t, s.Close())

	again, err := Open(path, nil)
	require.NoError(t, err)
	defer again.Close()
	doc := again.Load(ctx)
	require.Len(t, doc.Activities, 1)
	assert.Equal(t, "x", doc.Activities[0].ID)
}

func TestClearKeepsOnboarding(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)
	require.NoError(t, storage.CompleteOnboarding(ctx, s, core.ActivityRecord{ID: "x", Category: core.CategoryFood, Activity: core.ActivityVeganMeal, Amount: 1, Emissions: 0.7, Date: "2025-03-12"}))
	removed, err := storage.Clear(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	doc := s.Load(ctx)
	assert.Empty(t, doc.Activities)
	assert.True(t, doc.OnboardingDone)
}

func TestLoadAfterCloseFallsBack(t *testing.T) {
	s, _ := openTemp(t)
	require.NoError(t, s.Close())
	assert.Equal(t, core.EmptyDocument(), s.Load(context.Background()))
	assert.Error(t, s.Save(context.Background(), core.EmptyDocument()))
}
