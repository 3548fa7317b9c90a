package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrUniqueViolation  = errors.New("unique constraint violated")
	ErrForeignKeyAbsent = errors.New("referenced record does not exist")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// ConstraintError keeps the sentinel for errors.Is and the constraint name
// for callers that need to tell two unique indexes apart.
type ConstraintError struct {
	Sentinel   error
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return e.Sentinel.Error() + " (" + e.Constraint + ")"
}

func (e *ConstraintError) Is(target error) bool { return target == e.Sentinel }

func (e *ConstraintError) Unwrap() error { return e.Err }

// Classify translates pgx errors into the package sentinels. Other errors are
// returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &ConstraintError{Sentinel: ErrUniqueViolation, Constraint: pgErr.ConstraintName, Err: err}
		case pgForeignKeyViolation:
			return &ConstraintError{Sentinel: ErrForeignKeyAbsent, Constraint: pgErr.ConstraintName, Err: err}
		}
	}
	return err
}

// ConstraintName returns the violated constraint, or "" when err is not a
// constraint error.
func ConstraintName(err error) string {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Constraint
	}
	return ""
}
