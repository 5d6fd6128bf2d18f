package domain

import (
	"fmt"
	"slices"
)

// Ledger is the ordered set history of one exercise. It holds no
// persistence concerns; callers decide what to store after each change.
// A Ledger is not safe for concurrent use.
type Ledger struct {
	records []SetRecord
}

// NewLedger builds a ledger from persisted history keyed by ordinal.
// Records are ordered by ordinal and renumbered positionally. Every loaded
// record is reopened: its persisted value becomes Past, Present starts
// empty and the record is not completed.
func NewLedger(history map[int]SetEntry) *Ledger {
	ordinals := make([]int, 0, len(history))
	for ordinal := range history {
		ordinals = append(ordinals, ordinal)
	}
	slices.Sort(ordinals)

	records := make([]SetRecord, 0, len(ordinals))
	for i, ordinal := range ordinals {
		records = append(records, SetRecord{
			Ordinal: i + 1,
			Past:    history[ordinal],
		})
	}
	return &Ledger{records: records}
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Records returns a copy of the records in ordinal order.
func (l *Ledger) Records() []SetRecord {
	return slices.Clone(l.records)
}

// Record returns the record at ordinal.
func (l *Ledger) Record(ordinal int) (SetRecord, error) {
	idx, err := l.index(ordinal)
	if err != nil {
		return SetRecord{}, err
	}
	return l.records[idx], nil
}

// Append adds an empty record at the tail. It fails while the tail record
// is still open.
func (l *Ledger) Append() (SetRecord, error) {
	if n := len(l.records); n > 0 && !l.records[n-1].IsCompleted {
		return SetRecord{}, ErrOpenSetExists
	}

	rec := SetRecord{Ordinal: len(l.records) + 1}
	l.records = append(l.records, rec)
	return rec, nil
}

// Edit overwrites one present field of the record at ordinal. Edits to a
// completed record are ignored: applied is false and no error is returned.
func (l *Ledger) Edit(ordinal int, field SetField, value string) (rec SetRecord, applied bool, err error) {
	idx, err := l.index(ordinal)
	if err != nil {
		return SetRecord{}, false, err
	}
	if l.records[idx].IsCompleted {
		return l.records[idx], false, nil
	}

	value, err = normalizeSetValue(field, value)
	if err != nil {
		return l.records[idx], false, err
	}

	switch field {
	case FieldWeight:
		l.records[idx].Present.Weight = value
	case FieldReps:
		l.records[idx].Present.Reps = value
	}
	return l.records[idx], true, nil
}

// Commit finalizes the record at ordinal: Present is copied into Past and
// the record is locked. Both present fields must be filled.
func (l *Ledger) Commit(ordinal int) (SetRecord, error) {
	idx, err := l.index(ordinal)
	if err != nil {
		return SetRecord{}, err
	}

	rec := &l.records[idx]
	if rec.IsCompleted {
		return *rec, ErrSetCompleted
	}
	if !rec.Present.IsFilled() {
		return *rec, ErrIncompleteFields
	}

	rec.Past = rec.Present
	rec.IsCompleted = true
	return *rec, nil
}

// Clear drops every record.
func (l *Ledger) Clear() {
	l.records = nil
}

func (l *Ledger) index(ordinal int) (int, error) {
	if ordinal < 1 || ordinal > len(l.records) {
		return 0, fmt.Errorf("%w: ordinal %d", ErrSetNotFound, ordinal)
	}
	return ordinal - 1, nil
}
