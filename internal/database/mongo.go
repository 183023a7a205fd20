package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names used by the Mongo backend.
const (
	UsersCollection       = "users"
	EvaluationsCollection = "evaluations"
)

// ConnectMongo dials the cluster and verifies it with a primary ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	slog.Info("mongo connected")
	return client, nil
}

// EnsureMongoIndexes mirrors the indexes gorm creates on Postgres.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "auth0_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	_, err = db.Collection(EvaluationsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "evaluatee_id", Value: 1},
			{Key: "is_deleted", Value: 1},
			{Key: "created_at", Value: -1},
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to create evaluation indexes: %w", err)
	}
	return nil
}

// PingMongo reports whether the primary is reachable.
func PingMongo(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, readpref.Primary())
}
