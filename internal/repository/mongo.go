package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository keeps one collection per record type, with the key in _id.
type MongoRepository[T any] struct {
	c *mongo.Collection
}

func NewMongo[T any](db *mongo.Database, collection string) *MongoRepository[T] {
	return &MongoRepository[T]{c: db.Collection(collection)}
}

func (r *MongoRepository[T]) Get(ctx context.Context, key string) (*T, error) {
	var rec T
	if err := r.c.FindOne(ctx, bson.M{"_id": key}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return &rec, nil
}

func (r *MongoRepository[T]) Set(ctx context.Context, key string, rec *T) error {
	if err := assignKey(rec, key); err != nil {
		return err
	}
	_, err := r.c.ReplaceOne(ctx, bson.M{"_id": key}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (r *MongoRepository[T]) Filter(ctx context.Context, where Where) ([]T, error) {
	filter := bson.M{}
	for k, v := range where {
		filter[k] = v
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to filter: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode filter results: %w", err)
	}
	return out, nil
}

func (r *MongoRepository[T]) Delete(ctx context.Context, key string) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
