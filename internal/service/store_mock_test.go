package service

import (
	"context"
	"errors"
	"sync"

	"alcyxob/lift-log/internal/repository"
	"alcyxob/lift-log/internal/repository/memory"
)

var errStoreDown = errors.New("store is down")

// flakyStore wraps a working store and fails the calls that are switched on.
type flakyStore struct {
	repository.DocumentStore

	mu              sync.Mutex
	failGet         bool
	failSet         bool
	failDelete      bool
	failDeleteField bool
	failList        bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{DocumentStore: memory.NewStore(1 << 20)}
}

func (s *flakyStore) fail(flag *bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *flag
}

func (s *flakyStore) set(flag *bool, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*flag = v
}

func (s *flakyStore) Get(ctx context.Context, key repository.Key) (repository.Fields, error) {
	if s.fail(&s.failGet) {
		return nil, errStoreDown
	}
	return s.DocumentStore.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key repository.Key, fields repository.Fields) error {
	if s.fail(&s.failSet) {
		return errStoreDown
	}
	return s.DocumentStore.Set(ctx, key, fields)
}

func (s *flakyStore) Delete(ctx context.Context, key repository.Key) error {
	if s.fail(&s.failDelete) {
		return errStoreDown
	}
	return s.DocumentStore.Delete(ctx, key)
}

func (s *flakyStore) DeleteField(ctx context.Context, key repository.Key, field string) error {
	if s.fail(&s.failDeleteField) {
		return errStoreDown
	}
	return s.DocumentStore.DeleteField(ctx, key, field)
}

func (s *flakyStore) ListChildren(ctx context.Context, userID, collection string) ([]repository.Document, error) {
	if s.fail(&s.failList) {
		return nil, errStoreDown
	}
	return s.DocumentStore.ListChildren(ctx, userID, collection)
}
