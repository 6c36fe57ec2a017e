// Package repository wraps gorm access to the products, customers and scans
// tables. Driver errors are classified by kind (gorm's translated
// sentinels), never by message text.
package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrConflict reports that a uniqueness constraint rejected an insert.
	ErrConflict = errors.New("repository: unique constraint violation")
	// ErrNotFound reports that no row matched the filter.
	ErrNotFound = errors.New("repository: record not found")
)

// classify maps gorm's translated errors onto repository sentinels and
// passes everything else through unchanged.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	}
	return err
}

// Page describes a limit/offset window.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(tx *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		tx = tx.Limit(p.Limit)
	}
	if p.Offset > 0 {
		tx = tx.Offset(p.Offset)
	}
	return tx
}
