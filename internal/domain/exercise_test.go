package domain

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExerciseIdentity(t *testing.T) {
	assert.Equal(t, "bench_press", ExerciseIdentity("Bench press"))
	assert.Equal(t, "assisted_chin_up", ExerciseIdentity("  Assisted   chin\tup "))
	assert.Equal(t, "ab_wheel", ExerciseIdentity("AB WHEEL"))
	assert.Equal(t, "", ExerciseIdentity("   "))
}

func TestNewExerciseDefinition(t *testing.T) {
	def, err := NewExerciseDefinition(" Bench press ", " Chest")
	require.NoError(t, err)
	assert.Equal(t, ExerciseDefinition{Identity: "bench_press", Name: "Bench press", Category: "Chest"}, def)

	for _, tc := range []struct{ name, category string }{
		{"", "Chest"},
		{"   ", "Chest"},
		{"Bench press", ""},
		{"Bench press", " \t "},
	} {
		_, err := NewExerciseDefinition(tc.name, tc.category)
		assert.ErrorIs(t, err, ErrValidationFailed, "name=%q category=%q", tc.name, tc.category)
	}
}

var testCatalog = []ExerciseDefinition{
	{Identity: "ab_wheel", Name: "Ab wheel", Category: "Reps"},
	{Identity: "archer_curl", Name: "Archer curl", Category: "Arms"},
	{Identity: "assisted_pull_up", Name: "Assisted pull up", Category: "Back"},
	{Identity: "back_extension", Name: "Back extension", Category: "Lower Back"},
	{Identity: "bench_press", Name: "Bench press", Category: "Chest"},
}

func TestSearchExercises(t *testing.T) {
	names := func(defs []ExerciseDefinition, term, category string) []string {
		var out []string
		for ex := range SearchExercises(defs, term, category) {
			out = append(out, ex.Name)
		}
		return out
	}

	assert.Len(t, names(testCatalog, "", AllCategories), len(testCatalog))
	assert.Len(t, names(testCatalog, "", ""), len(testCatalog))
	assert.Equal(t, []string{"Back extension"}, names(testCatalog, "BA", AllCategories))
	assert.Equal(t, []string{"Ab wheel", "Archer curl", "Assisted pull up", "Back extension"}, names(testCatalog, "a", AllCategories))
	assert.Equal(t, []string{"Back extension"}, names(testCatalog, "back", "Lower Back"))
	assert.Empty(t, names(testCatalog, "back", "Back"))
	assert.Equal(t, []string{"Assisted pull up"}, names(testCatalog, "", "Back"))
	assert.Empty(t, names(testCatalog, "squat", AllCategories))
	// category match is exact
	assert.Empty(t, names(testCatalog, "", "chest"))
}

func TestSearchExercises_Restartable(t *testing.T) {
	seq := SearchExercises(testCatalog, "a", AllCategories)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)

	// early stop
	count := 0
	for range seq {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestSearchExercises_AddedExerciseFoundOnce(t *testing.T) {
	def, err := NewExerciseDefinition("Zercher squat", "Legs")
	require.NoError(t, err)
	catalog := append(slices.Clone(testCatalog), def)

	found := slices.Collect(SearchExercises(catalog, def.Name, AllCategories))
	require.Len(t, found, 1)
	assert.Equal(t, def, found[0])
}

func TestCategories(t *testing.T) {
	defs := append(slices.Clone(testCatalog),
		ExerciseDefinition{Identity: "dip", Name: "Dip", Category: "Chest"},
		ExerciseDefinition{Identity: "odd", Name: "Odd", Category: AllCategories},
	)
	assert.Equal(t,
		[]string{AllCategories, "Reps", "Arms", "Back", "Lower Back", "Chest"},
		Categories(defs),
	)
	assert.Equal(t, []string{AllCategories}, Categories(nil))
}
