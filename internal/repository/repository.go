package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when a lookup by key matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInvalidReference is returned when a foreign key points at no row.
	ErrInvalidReference = errors.New("invalid reference")
)

// wrap translates gorm sentinel errors and annotates everything else.
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: %w", op, ErrInvalidReference)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func orderBy(column string, desc bool) clause.OrderByColumn {
	return clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}
}

// groupsByID preloads groups so that the first one is the primary group.
func groupsByID(db *gorm.DB) *gorm.DB {
	return db.Order(orderBy("id", false))
}

func footnotesByTimestamp(db *gorm.DB) *gorm.DB {
	return db.Order(orderBy("timestamp", false)).Order(orderBy("id", false))
}

func questionsByOrder(db *gorm.DB) *gorm.DB {
	return db.Order(orderBy("order", false)).Order(orderBy("id", false))
}

// clauseAssociations skips nested association upserts on create.
const clauseAssociations = clause.Associations

func updateByID(ctx context.Context, db *gorm.DB, model interface{}, id uint, fields map[string]interface{}, op string) error {
	res := db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, db *gorm.DB, model interface{}, id uint, op string) error {
	res := db.WithContext(ctx).Delete(model, id)
	if res.Error != nil {
		return wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
