// internal/domain/exercise.go
package domain

import (
	"fmt"
	"iter"
	"strings"
)

// AllCategories is the category filter value that matches every exercise.
const AllCategories = "All"

// ExerciseDefinition represents a single exercise in a user's catalog.
// Identity is derived from Name and doubles as the storage key, so two
// definitions with the same normalized name are the same entry.
type ExerciseDefinition struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Category string `json:"category"` // e.g., "Chest", "Back, Arms"
}

// ExerciseIdentity normalizes an exercise name into its identity:
// lowercase, with every run of whitespace collapsed into a single underscore.
func ExerciseIdentity(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// NewExerciseDefinition validates name and category and derives the identity.
func NewExerciseDefinition(name, category string) (ExerciseDefinition, error) {
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)
	if name == "" || category == "" {
		return ExerciseDefinition{}, fmt.Errorf("%w: exercise name and category are required", ErrValidationFailed)
	}

	return ExerciseDefinition{
		Identity: ExerciseIdentity(name),
		Name:     name,
		Category: category,
	}, nil
}

// SearchExercises lazily yields the exercises whose name contains term
// (case-insensitive) and whose category equals category. An empty category
// or AllCategories matches everything. The sequence can be ranged over
// any number of times.
func SearchExercises(exercises []ExerciseDefinition, term, category string) iter.Seq[ExerciseDefinition] {
	needle := strings.ToLower(term)
	anyCategory := category == "" || category == AllCategories

	return func(yield func(ExerciseDefinition) bool) {
		for _, ex := range exercises {
			if !strings.Contains(strings.ToLower(ex.Name), needle) {
				continue
			}
			if !anyCategory && ex.Category != category {
				continue
			}
			if !yield(ex) {
				return
			}
		}
	}
}

// Categories returns the category filter options: AllCategories followed by
// each distinct category in the order it first appears.
func Categories(exercises []ExerciseDefinition) []string {
	categories := []string{AllCategories}
	seen := map[string]struct{}{AllCategories: {}}
	for _, ex := range exercises {
		if _, ok := seen[ex.Category]; ok {
			continue
		}
		seen[ex.Category] = struct{}{}
		categories = append(categories, ex.Category)
	}
	return categories
}
