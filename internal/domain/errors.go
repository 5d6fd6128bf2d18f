package domain

import "errors"

// --- Error Definitions ---
// User-action guards. None of them mutate state when returned.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrOpenSetExists    = errors.New("the last set must be completed before adding a new one")
	ErrIncompleteFields = errors.New("both weight and reps must be filled to complete a set")
	ErrSetCompleted     = errors.New("set is already completed")
	ErrSetNotFound      = errors.New("set not found")
)
