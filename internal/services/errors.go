/**
 * @description
 * Error kinds surfaced by the data access operations.
 *
 * @dependencies
 * - github.com/pkg/errors
 * - github.com/jackc/pgx/v5/pgconn: SQLSTATE extraction for Postgres failures
 */

package services

import (
	"context"

	"github.com/alertdesk/backend/internal/db"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

// ErrAlertNotFound is returned when an update or delete matches no row
var ErrAlertNotFound = errors.New("alert not found")

// StorageError wraps any failure reported by the database. Error() is the
// underlying message, which handlers return to the client verbatim.
type StorageError struct {
	Op   string
	Code string // SQLSTATE, empty unless the store is Postgres
	Err  error
}

func (e *StorageError) Error() string {
	return e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageError classifies err. Pool and context failures pass through untouched.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrPoolExhausted) || errors.Is(err, db.ErrConnection) ||
		errors.Is(err, context.Canceled) || errors.Is(err, ErrAlertNotFound) {
		return err
	}

	se := &StorageError{Op: op, Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		se.Code = pgErr.Code
	}
	return se
}

// IsStorageError reports whether err came from the database
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
