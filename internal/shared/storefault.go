package shared

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// StoreFaultKind tags what a storage error means to the caller, so
// services never have to pattern-match driver strings.
type StoreFaultKind int

const (
	FaultOther StoreFaultKind = iota
	FaultDuplicate
	FaultInvalidField
	FaultBadID
	FaultNotFound
)

// StoreFault is the tagged result of classifying a storage error.
type StoreFault struct {
	Kind       StoreFaultKind
	Constraint string
	Fields     []FieldError
	Err        error
}

func (f *StoreFault) Error() string {
	return fmt.Sprintf("store fault %d: %v", f.Kind, f.Err)
}

func (f *StoreFault) Unwrap() error { return f.Err }

// FaultClassifier is implemented by storage adapters. The pgx adapter
// lives below; a document-store adapter would supply its own.
type FaultClassifier interface {
	Classify(err error) *StoreFault
}

// PGFaults classifies pgx driver errors.
type PGFaults struct{}

// Classify maps a pgx error to its tagged fault.
func (PGFaults) Classify(err error) *StoreFault {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &StoreFault{Kind: FaultNotFound, Err: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &StoreFault{Kind: FaultDuplicate, Constraint: pgErr.ConstraintName, Err: err}
		case "23502":
			return &StoreFault{
				Kind:   FaultInvalidField,
				Fields: []FieldError{{Field: pgErr.ColumnName, Message: "is required"}},
				Err:    err,
			}
		case "23514":
			return &StoreFault{
				Kind:       FaultInvalidField,
				Constraint: pgErr.ConstraintName,
				Fields:     []FieldError{{Field: pgErr.ConstraintName, Message: "violates constraint"}},
				Err:        err,
			}
		case "22P02":
			return &StoreFault{Kind: FaultBadID, Err: err}
		}
	}
	return &StoreFault{Kind: FaultOther, Err: err}
}

// Taxonomy translates the fault into the operational error taxonomy:
// duplicates become conflicts, shape problems become validation errors,
// unknown faults stay internal.
func (f *StoreFault) Taxonomy() *Error {
	switch f.Kind {
	case FaultDuplicate:
		msg := "Resource already exists"
		if f.Constraint != "" {
			msg = fmt.Sprintf("Duplicate value for %s", f.Constraint)
		}
		return Conflict(msg).WithCode("DUPLICATE")
	case FaultInvalidField:
		return Validation("Invalid data").WithFields(f.Fields...)
	case FaultBadID:
		return Validation("Malformed identifier").WithCode("INVALID_ID")
	case FaultNotFound:
		return NotFound("Resource not found")
	default:
		return Internal(f.Err)
	}
}

var pgFaults PGFaults

// StoreError classifies err against the Postgres adapter and returns the
// taxonomy error. Repositories call it at the boundary so services only
// ever see tagged kinds.
func StoreError(err error) error {
	if err == nil {
		return nil
	}
	return pgFaults.Classify(err).Taxonomy()
}
