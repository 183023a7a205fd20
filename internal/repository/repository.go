// Package repository is the thin key/record layer the services sit on. Each
// entity gets a Repository keyed by an opaque string, backed either by
// Postgres through gorm or by a MongoDB collection.
package repository

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record violates a unique constraint")
)

// Where is an equality filter keyed by stored field name. Every backend
// stores the same names (gorm column == bson field).
type Where map[string]any

// Keyed is implemented by records whose primary key the repository assigns.
type Keyed interface {
	SetKey(key string)
}

// Repository stores whole records under a key. Set overwrites the record
// stored under key, creating it when absent. Filter returns matches oldest
// first by created_at.
type Repository[T any] interface {
	Get(ctx context.Context, key string) (*T, error)
	Set(ctx context.Context, key string, rec *T) error
	Filter(ctx context.Context, where Where) ([]T, error)
	Delete(ctx context.Context, key string) error
}

func assignKey[T any](rec *T, key string) error {
	k, ok := any(rec).(Keyed)
	if !ok {
		return fmt.Errorf("record type %T does not implement Keyed", rec)
	}
	if key == "" {
		return errors.New("record key is required")
	}
	k.SetKey(key)
	return nil
}
