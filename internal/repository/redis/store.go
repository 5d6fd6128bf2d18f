// Package redis is a DocumentStore on top of Redis hashes. Each document is
// one hash; a set per (user, collection) indexes the document IDs.
package redis

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"alcyxob/lift-log/internal/repository"

	"github.com/go-redis/redis/v8"
)

const (
	docKeyPrefix   = "liftlog-doc||"
	indexKeyPrefix = "liftlog-idx||"
)

type Store struct {
	redisClient *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redisClient: redisClient}
}

func docKey(key repository.Key) string {
	return docKeyPrefix + key.UserID + "||" + key.Collection + "||" + key.DocID
}

func indexKey(userID, collection string) string {
	return indexKeyPrefix + userID + "||" + collection
}

func (s *Store) Get(ctx context.Context, key repository.Key) (repository.Fields, error) {
	values, err := s.redisClient.HGetAll(ctx, docKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(values) == 0 {
		return nil, repository.ErrNotFound
	}
	return values, nil
}

func (s *Store) Set(ctx context.Context, key repository.Key, fields repository.Fields) error {
	if len(fields) == 0 {
		return nil
	}

	// flatten in field order, so the command is deterministic
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	args := make([]interface{}, 0, 2*len(names))
	for _, name := range names {
		args = append(args, name, fields[name])
	}

	if err := s.redisClient.HSet(ctx, docKey(key), args...).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	if err := s.redisClient.SAdd(ctx, indexKey(key.UserID, key.Collection), key.DocID).Err(); err != nil {
		return fmt.Errorf("index %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key repository.Key) error {
	if err := s.redisClient.Del(ctx, docKey(key)).Err(); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	if err := s.redisClient.SRem(ctx, indexKey(key.UserID, key.Collection), key.DocID).Err(); err != nil {
		return fmt.Errorf("unindex %s: %w", key, err)
	}
	return nil
}

func (s *Store) DeleteField(ctx context.Context, key repository.Key, field string) error {
	if err := s.redisClient.HDel(ctx, docKey(key), field).Err(); err != nil {
		return fmt.Errorf("hdel %s.%s: %w", key, field, err)
	}

	// redis drops empty hashes, drop the index entry with it
	remaining, err := s.redisClient.HLen(ctx, docKey(key)).Result()
	if err != nil {
		return fmt.Errorf("hlen %s: %w", key, err)
	}
	if remaining == 0 {
		if err := s.redisClient.SRem(ctx, indexKey(key.UserID, key.Collection), key.DocID).Err(); err != nil {
			return fmt.Errorf("unindex %s: %w", key, err)
		}
	}
	return nil
}

func (s *Store) ListChildren(ctx context.Context, userID, collection string) ([]repository.Document, error) {
	ids, err := s.redisClient.SMembers(ctx, indexKey(userID, collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers %s/%s: %w", userID, collection, err)
	}
	slices.Sort(ids)

	docs := make([]repository.Document, 0, len(ids))
	for _, id := range ids {
		key := repository.Key{UserID: userID, Collection: collection, DocID: id}
		values, err := s.redisClient.HGetAll(ctx, docKey(key)).Result()
		if err != nil {
			return nil, fmt.Errorf("hgetall %s: %w", key, err)
		}
		if len(values) == 0 {
			continue
		}
		docs = append(docs, repository.Document{Key: key, Fields: values})
	}
	return docs, nil
}
