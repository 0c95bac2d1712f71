// Package repo implements the data persistence layer for scores.
//
// The repository is "thin": each function runs exactly one statement and
// leaves everything else to the services package. Errors from GORM or the
// driver, including failures to obtain a pooled connection, are returned
// unchanged.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/hanoi-scores/internal/domain"
)

// CreateScore inserts one row and returns it as stored, including the
// generated id and creation_date (INSERT ... RETURNING *).
func CreateScore(ctx context.Context, db *gorm.DB, in domain.NewScore) (*domain.Score, error) {
	row := in.Row()
	err := db.WithContext(ctx).
		Omit("id", "creation_date").
		Clauses(clause.Returning{}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	// Dialects without RETURNING only report the id.
	if row.CreationDate.IsZero() {
		if err := db.WithContext(ctx).First(row, row.ID).Error; err != nil {
			return nil, err
		}
	}
	return row, nil
}

// ListScores returns at most limit rows in the engine's natural order.
// No ORDER BY is applied. A negative limit is treated as zero. The result
// is never nil.
func ListScores(ctx context.Context, db *gorm.DB, limit int) ([]domain.Score, error) {
	if limit < 0 {
		limit = 0
	}
	out := make([]domain.Score, 0, limit)
	if err := db.WithContext(ctx).Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
