package repository

import (
	"context"
	"strings"
)

// Error constants for repository layer
var (
	ErrNotFound      = RepositoryError("not found")
	ErrAlreadyExists = RepositoryError("already exists")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Logical collections stored through a DocumentStore.
const (
	CollectionExercises     = "exercises"
	CollectionUsers         = "users"
	CollectionRevokedTokens = "revoked_tokens"
)

// SystemScope is the owner used for documents that belong to no single
// user, such as accounts and revoked tokens.
const SystemScope = "_system"

// Key addresses one document: (owner, collection, document ID).
type Key struct {
	UserID     string
	Collection string
	DocID      string
}

func (k Key) String() string {
	return strings.Join([]string{k.UserID, k.Collection, k.DocID}, "/")
}

// Fields is the flat field map of a document.
type Fields map[string]string

// Document is a key with its fields, as returned by ListChildren.
type Document struct {
	Key    Key
	Fields Fields
}

// DocumentStore is the persistence collaborator shared by the catalog,
// the set ledger and the identity gate.
//
// A document with no fields does not exist: Get returns ErrNotFound for
// it and ListChildren skips it.
type DocumentStore interface {
	// Get returns the fields of the document, or ErrNotFound.
	Get(ctx context.Context, key Key) (Fields, error)

	// Set merges fields into the document, creating it if absent.
	Set(ctx context.Context, key Key, fields Fields) error

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, key Key) error

	// DeleteField removes one field from the document. Missing documents
	// and fields are ignored.
	DeleteField(ctx context.Context, key Key, field string) error

	// ListChildren returns every document of collection owned by userID,
	// ordered by document ID.
	ListChildren(ctx context.Context, userID, collection string) ([]Document, error)
}
