package service

import (
	"context"
	"slices"
	"sync"
	"testing"

	"alcyxob/lift-log/internal/domain"
	"alcyxob/lift-log/internal/metrics"
	"alcyxob/lift-log/internal/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDefaults = []domain.ExerciseDefinition{
	{Identity: "squat", Name: "Squat", Category: "Legs"},
	{Identity: "bench_press", Name: "Bench press", Category: "Chest"},
	{Identity: "arnold_press", Name: "Arnold press", Category: "Shoulders"},
}

func newTestCatalog(t *testing.T) (CatalogService, *flakyStore, *metrics.Manager) {
	t.Helper()
	catalog, _, store, m := newTestServices(t)
	return catalog, store, m
}

func newTestServices(t *testing.T) (CatalogService, WorkoutService, *flakyStore, *metrics.Manager) {
	t.Helper()
	store := newFlakyStore()
	m := metrics.NewTestManager()
	locks := NewUserLocks()
	workout := NewWorkoutService(store, locks, m)
	return NewCatalogService(store, testDefaults, locks, workout, m), workout, store, m
}

func names(exercises []domain.ExerciseDefinition) []string {
	out := make([]string, 0, len(exercises))
	for _, ex := range exercises {
		out = append(out, ex.Name)
	}
	return out
}

func TestCatalogService_LoadSeedsDefaults(t *testing.T) {
	catalog, store, _ := newTestCatalog(t)
	ctx := context.Background()

	exercises, err := catalog.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Arnold press", "Bench press", "Squat"}, names(exercises))

	docs, err := store.ListChildren(ctx, "u1", repository.CollectionExercises)
	require.NoError(t, err)
	assert.Len(t, docs, 3)

	// loading again reads what was persisted
	again, err := catalog.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, exercises, again)

	// other users are not affected
	docs, err = store.ListChildren(ctx, "u2", repository.CollectionExercises)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestCatalogService_Add(t *testing.T) {
	catalog, _, m := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.Add(ctx, "u1", "   ", "Back")
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
	_, err = catalog.Add(ctx, "u1", "Deadlift", "")
	assert.ErrorIs(t, err, domain.ErrValidationFailed)

	def, err := catalog.Add(ctx, "u1", "  Romanian   Deadlift ", " Back ")
	require.NoError(t, err)
	assert.Equal(t, domain.ExerciseDefinition{Identity: "romanian_deadlift", Name: "Romanian   Deadlift", Category: "Back"}, *def)

	exercises, err := catalog.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Romanian   Deadlift"}, names(exercises))

	// same identity overwrites
	_, err = catalog.Add(ctx, "u1", "romanian deadlift", "Legs")
	require.NoError(t, err)
	exercises, err = catalog.Load(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, exercises, 1)
	assert.Equal(t, "romanian deadlift", exercises[0].Name)
	assert.Equal(t, "Legs", exercises[0].Category)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterExercisesAdded))
}

func TestCatalogService_Remove(t *testing.T) {
	catalog, store, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.Load(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, exerciseKey("u1", "squat"), repository.Fields{"set_1": "225x5"}))

	require.NoError(t, catalog.Remove(ctx, "u1", "squat"))
	require.NoError(t, catalog.Remove(ctx, "u1", "no_such_exercise"))

	exercises, err := catalog.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Arnold press", "Bench press"}, names(exercises))

	// history goes with the exercise
	_, err = store.Get(ctx, exerciseKey("u1", "squat"))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCatalogService_Reset(t *testing.T) {
	catalog, store, m := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.Add(ctx, "u1", "Farmer walk", "Grip")
	require.NoError(t, err)
	require.NoError(t, catalog.Remove(ctx, "u1", "squat"))

	exercises, err := catalog.Reset(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Arnold press", "Bench press", "Squat"}, names(exercises))

	docs, err := store.ListChildren(ctx, "u1", repository.CollectionExercises)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterCatalogResets))

	// a reload sees the defaults once, and a second reset changes nothing
	loaded, err := catalog.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, exercises, loaded)

	again, err := catalog.Reset(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, exercises, again)
	loaded, err = catalog.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Arnold press", "Bench press", "Squat"}, names(loaded))
}

func TestCatalogService_AddKeepsHistory(t *testing.T) {
	catalog, store, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.Add(ctx, "u1", "Deadlift", "Back")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, exerciseKey("u1", "deadlift"), repository.Fields{"set_1": "315x3"}))

	_, err = catalog.Add(ctx, "u1", "deadlift", "Legs")
	require.NoError(t, err)

	fields, err := store.Get(ctx, exerciseKey("u1", "deadlift"))
	require.NoError(t, err)
	assert.Equal(t, repository.Fields{fieldName: "deadlift", fieldCategory: "Legs", "set_1": "315x3"}, fields)
}

func TestCatalogService_RemoveReleasesSelection(t *testing.T) {
	catalog, workout, store, m := newTestServices(t)
	ctx := context.Background()

	_, err := catalog.Load(ctx, "u1")
	require.NoError(t, err)
	_, err = workout.Select(ctx, "u1", "squat")
	require.NoError(t, err)
	_, err = workout.Append(ctx, "u1", "squat")
	require.NoError(t, err)
	_, err = workout.Edit(ctx, "u1", "squat", 1, domain.FieldWeight, "225")
	require.NoError(t, err)
	_, err = workout.Edit(ctx, "u1", "squat", 1, domain.FieldReps, "5")
	require.NoError(t, err)

	require.NoError(t, catalog.Remove(ctx, "u1", "squat"))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.GaugeActiveLedgers))

	// the pending set can no longer land in the removed exercise
	_, err = workout.Commit(ctx, "u1", "squat", 1)
	assert.ErrorIs(t, err, ErrExerciseNotSelected)
	_, err = store.Get(ctx, exerciseKey("u1", "squat"))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = catalog.Add(ctx, "u1", "Squat", "Legs")
	require.NoError(t, err)
	records, err := workout.Select(ctx, "u1", "squat")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCatalogService_ResetReleasesSelection(t *testing.T) {
	catalog, workout, store, _ := newTestServices(t)
	ctx := context.Background()

	_, err := catalog.Load(ctx, "u1")
	require.NoError(t, err)
	_, err = workout.Select(ctx, "u1", "bench_press")
	require.NoError(t, err)
	fillAndCommit(t, workout, "bench_press", "135", "5")
	_, err = workout.Append(ctx, "u1", "bench_press")
	require.NoError(t, err)
	_, err = workout.Edit(ctx, "u1", "bench_press", 2, domain.FieldWeight, "145")
	require.NoError(t, err)
	_, err = workout.Edit(ctx, "u1", "bench_press", 2, domain.FieldReps, "3")
	require.NoError(t, err)

	_, err = catalog.Reset(ctx, "u1")
	require.NoError(t, err)

	_, err = workout.Commit(ctx, "u1", "bench_press", 2)
	assert.ErrorIs(t, err, ErrExerciseNotSelected)

	// the reseeded default carries no history
	fields, err := store.Get(ctx, exerciseKey("u1", "bench_press"))
	require.NoError(t, err)
	assert.Equal(t, repository.Fields{fieldName: "Bench press", fieldCategory: "Chest"}, fields)
	records, err := workout.Select(ctx, "u1", "bench_press")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCatalogService_ConcurrentResetAndCommit(t *testing.T) {
	catalog, workout, store, _ := newTestServices(t)
	ctx := context.Background()

	_, err := catalog.Load(ctx, "u1")
	require.NoError(t, err)
	_, err = workout.Select(ctx, "u1", "squat")
	require.NoError(t, err)
	_, err = workout.Append(ctx, "u1", "squat")
	require.NoError(t, err)
	_, err = workout.Edit(ctx, "u1", "squat", 1, domain.FieldWeight, "225")
	require.NoError(t, err)
	_, err = workout.Edit(ctx, "u1", "squat", 1, domain.FieldReps, "5")
	require.NoError(t, err)

	var commitErr error
	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, commitErr = workout.Commit(ctx, "u1", "squat", 1)
	}()
	go func() {
		defer wg.Done()
		_, err := catalog.Reset(ctx, "u1")
		assert.NoError(t, err)
	}()
	wg.Wait()

	// either the commit ran first and reset wiped it, or it found no selection
	if commitErr != nil {
		assert.ErrorIs(t, commitErr, ErrExerciseNotSelected)
	}
	fields, err := store.Get(ctx, exerciseKey("u1", "squat"))
	require.NoError(t, err)
	assert.NotContains(t, fields, "set_1")
}

func TestCatalogService_Search(t *testing.T) {
	catalog, _, _ := newTestCatalog(t)
	ctx := context.Background()

	seq, err := catalog.Search(ctx, "u1", "PRESS", domain.AllCategories)
	require.NoError(t, err)
	assert.Equal(t, []string{"Arnold press", "Bench press"}, names(slices.Collect(seq)))

	seq, err = catalog.Search(ctx, "u1", "press", "Chest")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bench press"}, names(slices.Collect(seq)))
	// restartable
	assert.Equal(t, []string{"Bench press"}, names(slices.Collect(seq)))

	seq, err = catalog.Search(ctx, "u1", "", "Cardio")
	require.NoError(t, err)
	assert.Empty(t, slices.Collect(seq))
}

func TestCatalogService_PersistenceFailure(t *testing.T) {
	catalog, store, m := newTestCatalog(t)
	ctx := context.Background()

	store.set(&store.failSet, true)
	_, err := catalog.Add(ctx, "u1", "Deadlift", "Back")
	assert.ErrorIs(t, err, ErrPersistenceFailed)
	assert.ErrorIs(t, err, errStoreDown)

	_, err = catalog.Load(ctx, "u1")
	assert.ErrorIs(t, err, ErrPersistenceFailed)

	store.set(&store.failSet, false)
	store.set(&store.failList, true)
	_, err = catalog.Reset(ctx, "u1")
	assert.ErrorIs(t, err, ErrPersistenceFailed)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterPersistenceFailure.WithLabelValues("catalog.add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterPersistenceFailure.WithLabelValues("catalog.seed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterPersistenceFailure.WithLabelValues("catalog.reset")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CounterExercisesAdded))
}

func TestSortExercises(t *testing.T) {
	exercises := []domain.ExerciseDefinition{
		{Identity: "b2", Name: "b"},
		{Identity: "a", Name: "A"},
		{Identity: "b1", Name: "B"},
	}
	sortExercises(exercises)
	assert.Equal(t, []string{"a", "b1", "b2"}, []string{exercises[0].Identity, exercises[1].Identity, exercises[2].Identity})
}
