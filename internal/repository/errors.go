package repository

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes the repositories translate.
const (
	pgExclusionViolation  = "23P01"
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var (
	// ErrOverlap reports that the bookings_no_overlap exclusion constraint rejected a write.
	ErrOverlap = errors.New("booking interval overlaps an existing booking")
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrReference reports a missing referenced row (patient or service).
	ErrReference = errors.New("referenced record not found")
)

// translatePQ maps constraint violations to repository sentinels and returns other errors unchanged.
func translatePQ(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pgExclusionViolation:
		return ErrOverlap
	case pgUniqueViolation:
		return ErrDuplicate
	case pgForeignKeyViolation:
		return ErrReference
	}
	return err
}
