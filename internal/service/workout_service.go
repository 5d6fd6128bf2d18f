package service

import (
	"context"
	"errors"
	"sync"

	"alcyxob/lift-log/internal/domain"
	"alcyxob/lift-log/internal/metrics"
	"alcyxob/lift-log/internal/repository"

	log "github.com/sirupsen/logrus"
)

// WorkoutService keeps the set ledger of the exercise each user has selected.
// A user has at most one selected exercise; operations naming any other
// exercise fail with ErrExerciseNotSelected.
type WorkoutService interface {
	// Select loads the set history of the exercise and makes it the user's
	// selection. Unsaved values of the previous selection are discarded.
	Select(ctx context.Context, userID, identity string) ([]domain.SetRecord, error)
	Deselect(userID string)
	// Release deselects identity if it is the user's current selection.
	Release(userID, identity string)
	Sets(ctx context.Context, userID, identity string) ([]domain.SetRecord, error)
	Append(ctx context.Context, userID, identity string) (domain.SetRecord, error)
	// Edit changes one present value. Edits to a completed set are ignored.
	Edit(ctx context.Context, userID, identity string, ordinal int, field domain.SetField, value string) (domain.SetRecord, error)
	// Commit completes the set and persists it. A failed write leaves the
	// set completed in memory.
	Commit(ctx context.Context, userID, identity string, ordinal int) (domain.SetRecord, error)
	// Clear removes the whole set history of the exercise. The exercise
	// does not have to be selected.
	Clear(ctx context.Context, userID, identity string) error
}

type workoutSession struct {
	mu       sync.Mutex
	identity string
	ledger   *domain.Ledger
}

// workoutService implements the WorkoutService interface.
type workoutService struct {
	store   repository.DocumentStore
	metrics *metrics.Manager
	// taken before any session mutex
	userLocks *UserLocks

	mu       sync.Mutex
	sessions map[string]*workoutSession
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(store repository.DocumentStore, locks *UserLocks, m *metrics.Manager) WorkoutService {
	return &workoutService{
		store:     store,
		metrics:   m,
		userLocks: locks,
		sessions:  make(map[string]*workoutSession),
	}
}

func (s *workoutService) session(userID string) *workoutSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = &workoutSession{}
		s.sessions[userID] = sess
		s.metrics.GaugeActiveLedgers.Inc()
	}
	return sess
}

func (s *workoutService) existing(userID string) (*workoutSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// selected locks the user's session and checks that identity is selected.
// On success the caller must call the returned unlock.
func (s *workoutService) selected(userID, identity string) (*workoutSession, func(), error) {
	sess, ok := s.existing(userID)
	if !ok {
		return nil, nil, ErrExerciseNotSelected
	}
	sess.mu.Lock()
	if sess.ledger == nil || sess.identity != identity {
		sess.mu.Unlock()
		return nil, nil, ErrExerciseNotSelected
	}
	return sess, sess.mu.Unlock, nil
}

func (s *workoutService) Select(ctx context.Context, userID, identity string) ([]domain.SetRecord, error) {
	unlock := s.userLocks.Lock(userID)
	defer unlock()

	key := exerciseKey(userID, identity)
	fields, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, persistenceFailed(s.metrics, "sets.load", userID, err)
	}
	if fields[fieldName] == "" {
		return nil, ErrExerciseNotFound
	}

	history := decodeSetHistory(key, fields)
	if hasGaps(history) {
		log.Warnf("set history of [%s] has gaps, renumbering %d sets", key, len(history))
		if err := compactSetHistory(ctx, s.store, key, history); err != nil {
			return nil, persistenceFailed(s.metrics, "sets.compact", userID, err)
		}
	}

	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.ledger != nil && hasPendingValues(sess.ledger) {
		log.Debugf("user [%s] switched from [%s] to [%s], discarding unsaved values", userID, sess.identity, identity)
	}
	sess.identity = identity
	sess.ledger = domain.NewLedger(history)
	return sess.ledger.Records(), nil
}

func (s *workoutService) Deselect(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[userID]; ok {
		delete(s.sessions, userID)
		s.metrics.GaugeActiveLedgers.Dec()
	}
}

func (s *workoutService) Release(userID, identity string) {
	sess, ok := s.existing(userID)
	if !ok {
		return
	}

	sess.mu.Lock()
	selected := sess.identity == identity
	sess.mu.Unlock()
	if selected {
		s.Deselect(userID)
	}
}

func (s *workoutService) Sets(_ context.Context, userID, identity string) ([]domain.SetRecord, error) {
	sess, unlock, err := s.selected(userID, identity)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return sess.ledger.Records(), nil
}

func (s *workoutService) Append(_ context.Context, userID, identity string) (domain.SetRecord, error) {
	sess, unlock, err := s.selected(userID, identity)
	if err != nil {
		return domain.SetRecord{}, err
	}
	defer unlock()
	return sess.ledger.Append()
}

func (s *workoutService) Edit(_ context.Context, userID, identity string, ordinal int, field domain.SetField, value string) (domain.SetRecord, error) {
	sess, unlock, err := s.selected(userID, identity)
	if err != nil {
		return domain.SetRecord{}, err
	}
	defer unlock()

	rec, applied, err := sess.ledger.Edit(ordinal, field, value)
	if err != nil {
		return domain.SetRecord{}, err
	}
	if !applied {
		log.Debugf("ignoring edit of completed set %d of [%s] for user [%s]", ordinal, identity, userID)
	}
	return rec, nil
}

func (s *workoutService) Commit(ctx context.Context, userID, identity string, ordinal int) (domain.SetRecord, error) {
	unlockUser := s.userLocks.Lock(userID)
	defer unlockUser()

	sess, unlock, err := s.selected(userID, identity)
	if err != nil {
		return domain.SetRecord{}, err
	}
	defer unlock()

	rec, err := sess.ledger.Commit(ordinal)
	if err != nil {
		return rec, err
	}

	err = s.store.Set(ctx, exerciseKey(userID, identity), repository.Fields{
		setFieldName(rec.Ordinal): encodeSetEntry(rec.Past),
	})
	if err != nil {
		return rec, persistenceFailed(s.metrics, "sets.commit", userID, err)
	}
	s.metrics.CounterSetsCommitted.Inc()
	return rec, nil
}

func (s *workoutService) Clear(ctx context.Context, userID, identity string) error {
	unlockUser := s.userLocks.Lock(userID)
	defer unlockUser()

	sess, selected := s.existing(userID)
	if selected {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		selected = sess.ledger != nil && sess.identity == identity
	}

	key := exerciseKey(userID, identity)
	fields, err := s.store.Get(ctx, key)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return persistenceFailed(s.metrics, "sets.clear", userID, err)
	}
	for name := range fields {
		if !isSetField(name) {
			continue
		}
		if err := s.store.DeleteField(ctx, key, name); err != nil {
			return persistenceFailed(s.metrics, "sets.clear", userID, err)
		}
	}

	if selected {
		sess.ledger.Clear()
	}
	log.Debugf("cleared set history of [%s] for user [%s]", identity, userID)
	return nil
}

func hasPendingValues(ledger *domain.Ledger) bool {
	for _, rec := range ledger.Records() {
		if !rec.IsCompleted && !rec.Present.IsEmpty() {
			return true
		}
	}
	return false
}
