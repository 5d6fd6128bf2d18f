package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"alcyxob/lift-log/internal/domain"
)

// UserRepository defines the interface for interacting with account data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// TokenRepository records revoked session tokens.
type TokenRepository interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// documentUserRepository keeps accounts in the users collection of a
// DocumentStore, keyed by the lowercased email address.
type documentUserRepository struct {
	store DocumentStore
}

// NewUserRepository creates a UserRepository on top of store.
func NewUserRepository(store DocumentStore) UserRepository {
	return &documentUserRepository{store: store}
}

func userKey(email string) Key {
	return Key{
		UserID:     SystemScope,
		Collection: CollectionUsers,
		DocID:      strings.ToLower(strings.TrimSpace(email)),
	}
}

// Create stores a new user. It returns ErrAlreadyExists when the email is taken.
func (r *documentUserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" || user.Email == "" || user.PasswordHash == "" {
		return errors.New("user id, email and password hash are required")
	}

	key := userKey(user.Email)
	_, err := r.store.Get(ctx, key)
	if err == nil {
		return ErrAlreadyExists
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	return r.store.Set(ctx, key, Fields{
		"id":           user.ID,
		"email":        user.Email,
		"passwordHash": user.PasswordHash,
		"disabled":     strconv.FormatBool(user.Disabled),
		"createdAt":    user.CreatedAt.Format(time.RFC3339Nano),
	})
}

// GetByEmail retrieves a user by email address.
func (r *documentUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	fields, err := r.store.Get(ctx, userKey(email))
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           fields["id"],
		Email:        fields["email"],
		PasswordHash: fields["passwordHash"],
	}
	if raw := fields["disabled"]; raw != "" {
		user.Disabled, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("user %s: disabled flag: %w", user.Email, err)
		}
	}
	if raw := fields["createdAt"]; raw != "" {
		user.CreatedAt, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("user %s: createdAt: %w", user.Email, err)
		}
	}
	return user, nil
}

type documentTokenRepository struct {
	store DocumentStore
}

// NewTokenRepository creates a TokenRepository on top of store.
func NewTokenRepository(store DocumentStore) TokenRepository {
	return &documentTokenRepository{store: store}
}

func tokenKey(tokenID string) Key {
	return Key{UserID: SystemScope, Collection: CollectionRevokedTokens, DocID: tokenID}
}

func (r *documentTokenRepository) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return r.store.Set(ctx, tokenKey(tokenID), Fields{
		"expiresAt": expiresAt.UTC().Format(time.RFC3339),
	})
}

func (r *documentTokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, err := r.store.Get(ctx, tokenKey(tokenID))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}
