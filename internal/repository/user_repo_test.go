package repository_test

import (
	"context"
	"testing"
	"time"

	"alcyxob/lift-log/internal/domain"
	"alcyxob/lift-log/internal/repository"
	"alcyxob/lift-log/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(memory.NewStore(0))

	createdAt := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	user := &domain.User{
		ID:           "5f0c6a44-6d5b-4c43-9d43-3f7f4f1b7e10",
		Email:        "Lifter@Example.com",
		PasswordHash: "hash",
		CreatedAt:    createdAt,
	}
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByEmail(ctx, "lifter@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Lifter@Example.com", got.Email)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.False(t, got.Disabled)
	assert.True(t, createdAt.Equal(got.CreatedAt))

	err = repo.Create(ctx, &domain.User{ID: "other", Email: "LIFTER@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_CreateValidation(t *testing.T) {
	repo := repository.NewUserRepository(memory.NewStore(0))
	assert.Error(t, repo.Create(context.Background(), &domain.User{Email: "a@b.c"}))
}

func TestTokenRepository(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTokenRepository(memory.NewStore(0))

	revoked, err := repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, repo.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	revoked, err = repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}
