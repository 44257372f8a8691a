package db

import (
	"context"

	"gorm.io/gorm"
)

// QueryExecutor runs the small generic lookups shared by the services.
type QueryExecutor struct {
	DB *gorm.DB
}

// NewQueryExecutor creates a new instance of QueryExecutor.
func NewQueryExecutor(db *gorm.DB) *QueryExecutor {
	return &QueryExecutor{DB: db}
}

// Count returns the number of rows of model that match conditions.
func (qe *QueryExecutor) Count(ctx context.Context, model interface{}, conditions map[string]interface{}) (int64, error) {
	var count int64
	err := qe.DB.WithContext(ctx).Model(model).Where(conditions).Count(&count).Error
	return count, err
}

// Exists reports whether a row of model with the given primary key exists.
func (qe *QueryExecutor) Exists(ctx context.Context, model interface{}, id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	count, err := qe.Count(ctx, model, map[string]interface{}{"id": id})
	return count > 0, err
}

// Transaction executes fn within a database transaction.
func (qe *QueryExecutor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return qe.DB.WithContext(ctx).Transaction(fn)
}
