package query

import (
	"reflect"
	"strings"

	"gorm.io/gorm"
)

// FilterPredicate collects optional equality conditions joined with AND.
// Values are bound as parameters. Nil values and nil pointers are skipped so
// optional request filters can be passed straight through.
type FilterPredicate struct {
	clauses []string
	args    []interface{}
}

func NewFilterPredicate() *FilterPredicate {
	return &FilterPredicate{}
}

func (fp *FilterPredicate) Equal(column string, value interface{}) *FilterPredicate {
	v, ok := deref(value)
	if !ok {
		return fp
	}
	fp.clauses = append(fp.clauses, column+" = ?")
	fp.args = append(fp.args, v)
	return fp
}

func (fp *FilterPredicate) NotEqual(column string, value interface{}) *FilterPredicate {
	v, ok := deref(value)
	if !ok {
		return fp
	}
	fp.clauses = append(fp.clauses, column+" <> ?")
	fp.args = append(fp.args, v)
	return fp
}

func (fp *FilterPredicate) Empty() bool {
	return len(fp.clauses) == 0
}

// Build returns the condition and its arguments, or "" when nothing was set.
func (fp *FilterPredicate) Build() (string, []interface{}) {
	return strings.Join(fp.clauses, " AND "), fp.args
}

// Apply adds the predicate to db as a WHERE clause.
func (fp *FilterPredicate) Apply(db *gorm.DB) *gorm.DB {
	if fp.Empty() {
		return db
	}
	cond, args := fp.Build()
	return db.Where(cond, args...)
}

func deref(value interface{}) (interface{}, bool) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return nil, false
	}
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		return rv.Elem().Interface(), true
	}
	return value, true
}
