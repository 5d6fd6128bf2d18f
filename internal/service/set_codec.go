package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"alcyxob/lift-log/internal/domain"
	"alcyxob/lift-log/internal/repository"

	log "github.com/sirupsen/logrus"
)

// Committed sets live in the exercise document as set_<ordinal> = "<weight>x<reps>".
const setFieldPrefix = "set_"

func setFieldName(ordinal int) string {
	return setFieldPrefix + strconv.Itoa(ordinal)
}

func isSetField(name string) bool {
	return strings.HasPrefix(name, setFieldPrefix)
}

func encodeSetEntry(entry domain.SetEntry) string {
	return entry.Weight + "x" + entry.Reps
}

func decodeSetEntry(raw string) (domain.SetEntry, error) {
	weight, reps, ok := strings.Cut(raw, "x")
	if !ok || weight == "" || reps == "" {
		return domain.SetEntry{}, fmt.Errorf("malformed set value %q", raw)
	}
	entry := domain.SetEntry{Weight: weight, Reps: reps}
	if err := entry.Validate(); err != nil {
		return domain.SetEntry{}, fmt.Errorf("malformed set value %q: %w", raw, err)
	}
	return entry, nil
}

// decodeSetHistory extracts the committed sets of one exercise document.
// Fields that do not parse are logged and skipped.
func decodeSetHistory(key repository.Key, fields repository.Fields) map[int]domain.SetEntry {
	history := make(map[int]domain.SetEntry)
	for name, raw := range fields {
		if !isSetField(name) {
			continue
		}
		ordinal, err := strconv.Atoi(strings.TrimPrefix(name, setFieldPrefix))
		if err != nil || ordinal < 1 {
			log.Warnf("skipping set field [%s] of [%s]: bad ordinal", name, key)
			continue
		}
		entry, err := decodeSetEntry(raw)
		if err != nil {
			log.Warnf("skipping set field [%s] of [%s]: %s", name, key, err)
			continue
		}
		history[ordinal] = entry
	}
	return history
}

// hasGaps reports whether the stored ordinals are not exactly 1..n.
func hasGaps(history map[int]domain.SetEntry) bool {
	for ordinal := 1; ordinal <= len(history); ordinal++ {
		if _, ok := history[ordinal]; !ok {
			return true
		}
	}
	return false
}

// compactSetHistory rewrites history as set_1..set_n in ordinal order and
// deletes the fields above n, so that stored ordinals match ledger positions.
func compactSetHistory(ctx context.Context, store repository.DocumentStore, key repository.Key, history map[int]domain.SetEntry) error {
	ordinals := slices.Sorted(maps.Keys(history))
	fields := make(repository.Fields, len(ordinals))
	for i, ordinal := range ordinals {
		fields[setFieldName(i+1)] = encodeSetEntry(history[ordinal])
	}
	if err := store.Set(ctx, key, fields); err != nil {
		return err
	}

	for _, ordinal := range ordinals {
		if ordinal <= len(ordinals) {
			continue
		}
		if err := store.DeleteField(ctx, key, setFieldName(ordinal)); err != nil {
			return err
		}
	}
	return nil
}
