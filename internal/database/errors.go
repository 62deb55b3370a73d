package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Kind classifies a gateway failure. Callers branch on the kind and
// decide whether to retry, re-fetch, or report.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConstraint
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindConstraint:
		return "constraint violation"
	case KindUnavailable:
		return "connection unavailable"
	default:
		return "unknown"
	}
}

// Error is the failure type every gateway operation returns. Op names
// the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("database: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapErr classifies err into an *Error for the given operation.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: classify(err), Op: op, Err: err}
}

func classify(err error) Kind {
	if errors.Is(err, pgx.ErrNoRows) {
		return KindNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 23 covers integrity constraint violations, including
		// 23505 unique_violation used by the guest_id constraint.
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "23" {
			return KindConstraint
		}
		// Class 08 is connection exceptions.
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
			return KindUnavailable
		}
		return KindUnknown
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return KindUnavailable
	}
	return KindUnknown
}

func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNotFound
}

func IsConstraint(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindConstraint
}

func IsUnavailable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindUnavailable
}
