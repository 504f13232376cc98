// Package repo holds the gorm plumbing shared by the read-heavy menu
// repositories: context binding and scanning joined rows into views.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base binds a repository to a connection or an open transaction.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx returns it unbound.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Bind returns a Base on tx, or b itself when tx is nil.
func (b Base) Bind(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// ScanViews scans q into rows of type R and converts each with view.
func ScanViews[R, V any](q *gorm.DB, view func(R) V) ([]V, error) {
	var rows []R
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]V, 0, len(rows))
	for _, row := range rows {
		out = append(out, view(row))
	}
	return out, nil
}

// GroupViews scans q like ScanViews and groups the views by key, keeping
// query order inside each group.
func GroupViews[R, V any, K comparable](q *gorm.DB, key func(R) K, view func(R) V) (map[K][]V, error) {
	var rows []R
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[K][]V)
	for _, row := range rows {
		k := key(row)
		out[k] = append(out[k], view(row))
	}
	return out, nil
}
