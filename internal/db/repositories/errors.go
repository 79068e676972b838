// Package repositories contains the data-access layer: one repository per
// entity kind with raw SQL queries. Lookups return nil (no error) on absence;
// callers decide whether absence is an error. Constraint violations reported
// by PostgreSQL are translated into sentinel errors so upper layers never
// inspect driver error codes.
package repositories

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate is returned by Create when the row collides with an
	// existing sibling (unique_violation, 23505). The unique constraint is the
	// authoritative arbiter of create races.
	ErrDuplicate = errors.New("row violates a uniqueness constraint")

	// ErrParentMissing is returned by Create when the parent reference does
	// not resolve (foreign_key_violation, 23503); the parent was deleted
	// between resolution and insert.
	ErrParentMissing = errors.New("referenced parent row does not exist")

	// ErrRestricted is returned by Delete when child rows still reference the
	// row (foreign_key_violation, 23503, on the RESTRICT constraint).
	ErrRestricted = errors.New("row is still referenced by child rows")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// insertError translates constraint failures raised by an INSERT.
func insertError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgForeignKeyViolation:
			return ErrParentMissing
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// deleteError translates constraint failures raised by a DELETE. A 23503 here
// means dependent child rows blocked the removal.
func deleteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if string(pqErr.Code) == pgForeignKeyViolation {
			return ErrRestricted
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
