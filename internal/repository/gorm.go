package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository keeps one table per record type. The table must have an
// "id" primary key and a "created_at" column.
type GormRepository[T any] struct {
	db *gorm.DB
}

func NewGorm[T any](db *gorm.DB) *GormRepository[T] {
	return &GormRepository[T]{db: db}
}

func (r *GormRepository[T]) Get(ctx context.Context, key string) (*T, error) {
	var rec T
	if err := r.db.WithContext(ctx).Where("id = ?", key).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return &rec, nil
}

func (r *GormRepository[T]) Set(ctx context.Context, key string, rec *T) error {
	if err := assignKey(rec, key); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (r *GormRepository[T]) Filter(ctx context.Context, where Where) ([]T, error) {
	var out []T
	q := r.db.WithContext(ctx)
	if len(where) > 0 {
		q = q.Where(map[string]interface{}(where))
	}
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to filter: %w", err)
	}
	return out, nil
}

func (r *GormRepository[T]) Delete(ctx context.Context, key string) error {
	res := r.db.WithContext(ctx).Where("id = ?", key).Delete(new(T))
	if res.Error != nil {
		return fmt.Errorf("failed to delete %s: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
