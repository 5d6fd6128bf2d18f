package service

import (
	"cmp"
	"context"
	"errors"
	"iter"
	"slices"
	"strings"

	"alcyxob/lift-log/internal/domain"
	"alcyxob/lift-log/internal/metrics"
	"alcyxob/lift-log/internal/repository"

	log "github.com/sirupsen/logrus"
)

// Exercise document fields. Set history shares the document, see setFieldName.
const (
	fieldName     = "name"
	fieldCategory = "category"
)

type CatalogService interface {
	// Load returns the user's exercises, seeding the default catalog when there are none.
	Load(ctx context.Context, userID string) ([]domain.ExerciseDefinition, error)
	// Add stores the exercise. An entry with the same identity gets the new
	// name and category; its set history stays.
	Add(ctx context.Context, userID, name, category string) (*domain.ExerciseDefinition, error)
	// Remove deletes the exercise and its set history. Unknown identities are ignored.
	Remove(ctx context.Context, userID, identity string) error
	// Reset deletes every exercise of the user and reseeds the default catalog.
	Reset(ctx context.Context, userID string) ([]domain.ExerciseDefinition, error)
	Search(ctx context.Context, userID, term, category string) (iter.Seq[domain.ExerciseDefinition], error)
}

// SessionReleaser drops workout sessions whose exercise is gone.
// WorkoutService implements it.
type SessionReleaser interface {
	Release(userID, identity string)
	Deselect(userID string)
}

// catalogService implements the CatalogService interface.
type catalogService struct {
	store    repository.DocumentStore
	defaults []domain.ExerciseDefinition
	sessions SessionReleaser
	metrics  *metrics.Manager
	// shared with the workout service
	userLocks *UserLocks
}

// NewCatalogService creates a new instance of catalogService. locks must be
// the same UserLocks the workout service was built with.
func NewCatalogService(
	store repository.DocumentStore,
	defaults []domain.ExerciseDefinition,
	locks *UserLocks,
	sessions SessionReleaser,
	m *metrics.Manager,
) CatalogService {
	return &catalogService{
		store:     store,
		defaults:  slices.Clone(defaults),
		sessions:  sessions,
		metrics:   m,
		userLocks: locks,
	}
}

func exerciseKey(userID, identity string) repository.Key {
	return repository.Key{
		UserID:     userID,
		Collection: repository.CollectionExercises,
		DocID:      identity,
	}
}

func (s *catalogService) Load(ctx context.Context, userID string) ([]domain.ExerciseDefinition, error) {
	unlock := s.userLocks.Lock(userID)
	defer unlock()

	exercises, err := s.list(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(exercises) > 0 {
		return exercises, nil
	}

	log.Debugf("catalog of user [%s] is empty, seeding defaults", userID)
	return s.seed(ctx, userID)
}

func (s *catalogService) Add(ctx context.Context, userID, name, category string) (*domain.ExerciseDefinition, error) {
	def, err := domain.NewExerciseDefinition(name, category)
	if err != nil {
		return nil, err
	}

	unlock := s.userLocks.Lock(userID)
	defer unlock()

	if err := s.put(ctx, userID, def); err != nil {
		return nil, persistenceFailed(s.metrics, "catalog.add", userID, err)
	}
	s.metrics.CounterExercisesAdded.Inc()
	return &def, nil
}

func (s *catalogService) Remove(ctx context.Context, userID, identity string) error {
	unlock := s.userLocks.Lock(userID)
	defer unlock()

	s.sessions.Release(userID, identity)
	if err := s.store.Delete(ctx, exerciseKey(userID, identity)); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return persistenceFailed(s.metrics, "catalog.remove", userID, err)
	}
	return nil
}

func (s *catalogService) Reset(ctx context.Context, userID string) ([]domain.ExerciseDefinition, error) {
	unlock := s.userLocks.Lock(userID)
	defer unlock()

	docs, err := s.store.ListChildren(ctx, userID, repository.CollectionExercises)
	if err != nil {
		return nil, persistenceFailed(s.metrics, "catalog.reset", userID, err)
	}
	s.sessions.Deselect(userID)
	for _, doc := range docs {
		if err := s.store.Delete(ctx, doc.Key); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, persistenceFailed(s.metrics, "catalog.reset", userID, err)
		}
	}

	exercises, err := s.seed(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.metrics.CounterCatalogResets.Inc()
	log.Infof("catalog of user [%s] reset, %d exercises removed", userID, len(docs))
	return exercises, nil
}

func (s *catalogService) Search(ctx context.Context, userID, term, category string) (iter.Seq[domain.ExerciseDefinition], error) {
	exercises, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.SearchExercises(exercises, term, category), nil
}

// seed writes the default catalog. Defaults are keyed by identity, so
// seeding twice leaves the same entries behind.
func (s *catalogService) seed(ctx context.Context, userID string) ([]domain.ExerciseDefinition, error) {
	byIdentity := make(map[string]domain.ExerciseDefinition, len(s.defaults))
	for _, def := range s.defaults {
		if err := s.put(ctx, userID, def); err != nil {
			return nil, persistenceFailed(s.metrics, "catalog.seed", userID, err)
		}
		byIdentity[def.Identity] = def
	}

	exercises := make([]domain.ExerciseDefinition, 0, len(byIdentity))
	for _, def := range byIdentity {
		exercises = append(exercises, def)
	}
	sortExercises(exercises)
	return exercises, nil
}

func (s *catalogService) put(ctx context.Context, userID string, def domain.ExerciseDefinition) error {
	return s.store.Set(ctx, exerciseKey(userID, def.Identity), repository.Fields{
		fieldName:     def.Name,
		fieldCategory: def.Category,
	})
}

func (s *catalogService) list(ctx context.Context, userID string) ([]domain.ExerciseDefinition, error) {
	docs, err := s.store.ListChildren(ctx, userID, repository.CollectionExercises)
	if err != nil {
		return nil, persistenceFailed(s.metrics, "catalog.load", userID, err)
	}

	exercises := make([]domain.ExerciseDefinition, 0, len(docs))
	for _, doc := range docs {
		def, ok := exerciseFromFields(doc.Key.DocID, doc.Fields)
		if !ok {
			log.Warnf("skipping exercise document [%s] without a name", doc.Key)
			continue
		}
		exercises = append(exercises, def)
	}
	sortExercises(exercises)
	return exercises, nil
}

func exerciseFromFields(identity string, fields repository.Fields) (domain.ExerciseDefinition, bool) {
	name := fields[fieldName]
	if name == "" {
		return domain.ExerciseDefinition{}, false
	}
	return domain.ExerciseDefinition{
		Identity: identity,
		Name:     name,
		Category: fields[fieldCategory],
	}, true
}

func sortExercises(exercises []domain.ExerciseDefinition) {
	slices.SortFunc(exercises, func(a, b domain.ExerciseDefinition) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.Identity, b.Identity),
		)
	})
}
