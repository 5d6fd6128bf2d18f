package service

import (
	"errors"
	"fmt"

	"alcyxob/lift-log/internal/metrics"

	log "github.com/sirupsen/logrus"
)

// --- Error Definitions ---
var (
	ErrPersistenceFailed   = errors.New("could not save your changes, please try again")
	ErrExerciseNotFound    = errors.New("exercise not found")
	ErrExerciseNotSelected = errors.New("exercise is not selected")
	ErrExportDisabled      = errors.New("history export is not configured")
)

// persistenceFailed logs a rejected storage call, counts it and wraps it
// so callers can match ErrPersistenceFailed.
func persistenceFailed(m *metrics.Manager, operation, userID string, err error) error {
	log.WithFields(log.Fields{
		"operation": operation,
		"user":      userID,
	}).Errorf("storage call failed: %s", err)
	if m != nil {
		m.CounterPersistenceFailure.WithLabelValues(operation).Inc()
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistenceFailed, operation, err)
}
