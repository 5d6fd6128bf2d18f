// Package memory is an in-process DocumentStore backed by a bounded byte
// cache. Like browser local storage it is scoped to the running process
// and has a fixed capacity; entries may be evicted once it is full.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"alcyxob/lift-log/internal/repository"

	"github.com/coocood/freecache"
)

// MinSizeBytes is the smallest cache freecache will allocate.
const MinSizeBytes = 512 * 1024

type Store struct {
	// guards read-modify-write sequences; freecache only locks single ops
	mu    sync.Mutex
	cache *freecache.Cache
}

// NewStore creates a store holding at most sizeBytes of data.
func NewStore(sizeBytes int) *Store {
	if sizeBytes < MinSizeBytes {
		sizeBytes = MinSizeBytes
	}
	return &Store{
		cache: freecache.NewCache(sizeBytes),
	}
}

func docCacheKey(key repository.Key) []byte {
	return []byte("doc|" + key.UserID + "|" + key.Collection + "|" + key.DocID)
}

func indexCacheKey(userID, collection string) []byte {
	return []byte("idx|" + userID + "|" + collection)
}

func (s *Store) Get(_ context.Context, key repository.Key) (repository.Fields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getDoc(key)
}

func (s *Store) Set(_ context.Context, key repository.Key, fields repository.Fields) error {
	if len(fields) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.getDoc(key)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if doc == nil {
		doc = repository.Fields{}
	}
	for k, v := range fields {
		doc[k] = v
	}

	if err := s.putDoc(key, doc); err != nil {
		return err
	}
	return s.updateIndex(key.UserID, key.Collection, func(ids []string) []string {
		if i, found := slices.BinarySearch(ids, key.DocID); !found {
			ids = slices.Insert(ids, i, key.DocID)
		}
		return ids
	})
}

func (s *Store) Delete(_ context.Context, key repository.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteDoc(key)
}

func (s *Store) DeleteField(_ context.Context, key repository.Key, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.getDoc(key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if _, ok := doc[field]; !ok {
		return nil
	}
	delete(doc, field)
	if len(doc) == 0 {
		return s.deleteDoc(key)
	}
	return s.putDoc(key, doc)
}

func (s *Store) ListChildren(_ context.Context, userID, collection string) ([]repository.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.getIndex(userID, collection)
	if err != nil {
		return nil, err
	}

	docs := make([]repository.Document, 0, len(ids))
	for _, id := range ids {
		key := repository.Key{UserID: userID, Collection: collection, DocID: id}
		fields, err := s.getDoc(key)
		if errors.Is(err, repository.ErrNotFound) {
			// evicted
			continue
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, repository.Document{Key: key, Fields: fields})
	}
	return docs, nil
}

func (s *Store) getDoc(key repository.Key) (repository.Fields, error) {
	raw, err := s.cache.Get(docCacheKey(key))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var fields repository.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, repository.ErrNotFound
	}
	return fields, nil
}

func (s *Store) putDoc(key repository.Key, fields repository.Fields) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}
	if err := s.cache.Set(docCacheKey(key), raw, 0); err != nil {
		return fmt.Errorf("store document %s: %w", key, err)
	}
	return nil
}

func (s *Store) deleteDoc(key repository.Key) error {
	s.cache.Del(docCacheKey(key))
	return s.updateIndex(key.UserID, key.Collection, func(ids []string) []string {
		if i, found := slices.BinarySearch(ids, key.DocID); found {
			ids = slices.Delete(ids, i, i+1)
		}
		return ids
	})
}

func (s *Store) getIndex(userID, collection string) ([]string, error) {
	raw, err := s.cache.Get(indexCacheKey(userID, collection))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode index %s/%s: %w", userID, collection, err)
	}
	return ids, nil
}

func (s *Store) updateIndex(userID, collection string, update func([]string) []string) error {
	ids, err := s.getIndex(userID, collection)
	if err != nil {
		return err
	}
	ids = update(ids)

	if len(ids) == 0 {
		s.cache.Del(indexCacheKey(userID, collection))
		return nil
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.cache.Set(indexCacheKey(userID, collection), raw, 0)
}
