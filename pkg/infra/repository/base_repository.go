package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// BaseRepository provides the standard CRUD surface applications embed in
// their own repositories. Complex queries go through RawSQL/RawSQLRows with
// parameterized statements.
type BaseRepository[T any] struct {
	db *gorm.DB
}

func NewBaseRepository[T any](db *gorm.DB) *BaseRepository[T] {
	return &BaseRepository[T]{db: db}
}

// Get fetches a single record by primary key. Returns (nil, nil) when the
// record does not exist so callers can map absence to their own error.
func (r *BaseRepository[T]) Get(ctx context.Context, id interface{}) (*T, error) {
	var entity T
	err := r.db.WithContext(ctx).First(&entity, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entity, nil
}

// List fetches records with offset/limit pagination.
func (r *BaseRepository[T]) List(ctx context.Context, offset, limit int) ([]T, error) {
	var entities []T
	err := r.db.WithContext(ctx).Offset(offset).Limit(limit).Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return entities, nil
}

// Count returns the total number of records for the model.
func (r *BaseRepository[T]) Count(ctx context.Context) (int64, error) {
	var model T
	var total int64
	err := r.db.WithContext(ctx).Model(&model).Count(&total).Error
	return total, err
}

func (r *BaseRepository[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

func (r *BaseRepository[T]) Update(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Save(entity).Error
}

func (r *BaseRepository[T]) Delete(ctx context.Context, id interface{}) error {
	var model T
	result := r.db.WithContext(ctx).Delete(&model, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RawSQL executes a parameterized statement that returns no rows.
func (r *BaseRepository[T]) RawSQL(ctx context.Context, query string, args ...interface{}) error {
	return r.db.WithContext(ctx).Exec(query, args...).Error
}

// RawSQLRows executes a parameterized query and scans every row into a map,
// for reporting-style queries that do not fit the model.
func (r *BaseRepository[T]) RawSQLRows(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Transaction runs fn inside a database transaction.
func (r *BaseRepository[T]) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
