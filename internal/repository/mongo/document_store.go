package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/lift-log/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// document is the stored shape of a repository.Document. Each logical
// collection is its own MongoDB collection; _id is "<userId>/<docId>".
type document struct {
	ID        string            `bson:"_id"`
	UserID    string            `bson:"userId"`
	DocID     string            `bson:"docId"`
	Fields    map[string]string `bson:"fields"`
	UpdatedAt time.Time         `bson:"updatedAt"`
}

// mongoDocumentStore implements repository.DocumentStore
type mongoDocumentStore struct {
	db *mongo.Database
}

// NewMongoDocumentStore creates a DocumentStore backed by MongoDB.
func NewMongoDocumentStore(db *mongo.Database) repository.DocumentStore {
	return &mongoDocumentStore{db: db}
}

func documentID(key repository.Key) string {
	return key.UserID + "/" + key.DocID
}

func (s *mongoDocumentStore) Get(ctx context.Context, key repository.Key) (repository.Fields, error) {
	var doc document
	err := s.db.Collection(key.Collection).FindOne(ctx, bson.M{"_id": documentID(key)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if len(doc.Fields) == 0 {
		return nil, repository.ErrNotFound
	}
	return doc.Fields, nil
}

// Set upserts the document, merging fields into the stored field map.
func (s *mongoDocumentStore) Set(ctx context.Context, key repository.Key, fields repository.Fields) error {
	if len(fields) == 0 {
		return nil
	}

	set := bson.M{
		"userId":    key.UserID,
		"docId":     key.DocID,
		"updatedAt": time.Now().UTC(),
	}
	for name, value := range fields {
		set["fields."+name] = value
	}

	_, err := s.db.Collection(key.Collection).UpdateOne(
		ctx,
		bson.M{"_id": documentID(key)},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *mongoDocumentStore) Delete(ctx context.Context, key repository.Key) error {
	// DeletedCount == 0 is fine, deleting a missing document is a no-op
	_, err := s.db.Collection(key.Collection).DeleteOne(ctx, bson.M{"_id": documentID(key)})
	return err
}

func (s *mongoDocumentStore) DeleteField(ctx context.Context, key repository.Key, field string) error {
	_, err := s.db.Collection(key.Collection).UpdateOne(
		ctx,
		bson.M{"_id": documentID(key)},
		bson.M{
			"$unset": bson.M{"fields." + field: ""},
			"$set":   bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	return err
}

func (s *mongoDocumentStore) ListChildren(ctx context.Context, userID, collection string) ([]repository.Document, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "docId", Value: 1}})
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []document
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	children := make([]repository.Document, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Fields) == 0 {
			continue
		}
		children = append(children, repository.Document{
			Key:    repository.Key{UserID: userID, Collection: collection, DocID: doc.DocID},
			Fields: doc.Fields,
		})
	}
	return children, nil
}

// EnsureIndexes creates the indexes every document collection needs.
// Call this once during application startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database, collections ...string) error {
	indexes := []mongo.IndexModel{
		{
			// listing a user's children, sorted by document ID
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "docId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	for _, name := range collections {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes for collection %s: %w", name, err)
		}
	}
	return nil
}
