package domain

import (
	"fmt"
	"strings"
)

// SetField names one editable half of a SetEntry.
type SetField string

const (
	FieldWeight SetField = "weight"
	FieldReps   SetField = "reps"
)

// ParseSetField maps a raw field name onto a SetField.
func ParseSetField(raw string) (SetField, error) {
	switch SetField(strings.ToLower(strings.TrimSpace(raw))) {
	case FieldWeight:
		return FieldWeight, nil
	case FieldReps:
		return FieldReps, nil
	default:
		return "", fmt.Errorf("%w: unknown set field %q", ErrValidationFailed, raw)
	}
}

// SetEntry is one weight x reps pair. Both values are kept as entered;
// an empty string means the value has not been filled in yet.
type SetEntry struct {
	Weight string `json:"weight"`
	Reps   string `json:"reps"`
}

// IsFilled reports whether both weight and reps are present.
func (e SetEntry) IsFilled() bool {
	return e.Weight != "" && e.Reps != ""
}

// IsEmpty reports whether neither value is present.
func (e SetEntry) IsEmpty() bool {
	return e.Weight == "" && e.Reps == ""
}

// Summary renders the entry the way the "previous" column shows it.
func (e SetEntry) Summary() string {
	if e.Weight == "" {
		return "N/A"
	}
	return fmt.Sprintf("%s lbs x %s", e.Weight, e.Reps)
}

// SetRecord is one row of a ledger. Past holds the last committed values,
// Present the values being edited. Ordinal is the 1-based position of the
// record in its ledger.
type SetRecord struct {
	Ordinal     int      `json:"ordinal"`
	Past        SetEntry `json:"past"`
	Present     SetEntry `json:"present"`
	IsCompleted bool     `json:"isCompleted"`
}

// Validate checks that both values are filled in and well formed.
func (e SetEntry) Validate() error {
	if !e.IsFilled() {
		return ErrIncompleteFields
	}
	if _, err := normalizeSetValue(FieldWeight, e.Weight); err != nil {
		return err
	}
	_, err := normalizeSetValue(FieldReps, e.Reps)
	return err
}

// normalizeSetValue trims value and checks that it is a non-negative decimal
// number. Weight may carry one decimal point, reps must be whole. Signs,
// exponents, hex and special values such as NaN are rejected. Empty is allowed.
func normalizeSetValue(field SetField, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}

	switch field {
	case FieldWeight:
		if !isDecimal(value, true) {
			return "", fmt.Errorf("%w: weight must be a non-negative number, got %q", ErrValidationFailed, value)
		}
	case FieldReps:
		if !isDecimal(value, false) {
			return "", fmt.Errorf("%w: reps must be a non-negative whole number, got %q", ErrValidationFailed, value)
		}
	default:
		return "", fmt.Errorf("%w: unknown set field %q", ErrValidationFailed, field)
	}
	return value, nil
}

// isDecimal reports whether s is made of ASCII digits with at most one
// decimal point when fraction is allowed.
func isDecimal(s string, fraction bool) bool {
	digits, points := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' && fraction:
			points++
		default:
			return false
		}
	}
	return digits > 0 && points <= 1
}
