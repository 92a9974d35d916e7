package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("repository: record not found")
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
	ErrForeignKey     = errors.New("repository: foreign key violation")
	ErrCheckViolation = errors.New("repository: check constraint violation")
	// ErrCapacityReached is returned when a room already holds its limit of members.
	ErrCapacityReached = errors.New("repository: room capacity reached")
)

// Postgres SQLSTATE codes mapped by translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// ConstraintError names the storage constraint behind a duplicate or
// foreign key failure, so services can tell which invariant was hit.
type ConstraintError struct {
	Err        error
	Constraint string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%v (%s)", e.Err, e.Constraint)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// ConstraintName returns the violated constraint, or "" when err is not a
// constraint failure.
func ConstraintName(err error) string {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Constraint
	}
	return ""
}

func IsConstraint(err error, constraint string) bool {
	return ConstraintName(err) == constraint
}

func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &ConstraintError{Err: ErrDuplicateEntry, Constraint: pgErr.ConstraintName}
		case pgForeignKeyViolation:
			return &ConstraintError{Err: ErrForeignKey, Constraint: pgErr.ConstraintName}
		case pgCheckViolation:
			return &ConstraintError{Err: ErrCheckViolation, Constraint: pgErr.ConstraintName}
		}
	}
	return fmt.Errorf("gorm: %s: %w", op, err)
}
