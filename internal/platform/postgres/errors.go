package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/phrazzld/montage-api/internal/store"
)

// SQLSTATE codes the task store reacts to.
const (
	uniqueViolationCode      = "23505"
	checkViolationCode       = "23514"
	notNullViolationCode     = "23502"
	lockNotAvailableCode     = "55P03"
	serializationFailureCode = "40001"
	deadlockDetectedCode     = "40P01"
)

var sqlStateErrors = map[string]error{
	uniqueViolationCode:      store.ErrDuplicate,
	checkViolationCode:       store.ErrInvalidEntity,
	notNullViolationCode:     store.ErrInvalidEntity,
	lockNotAvailableCode:     store.ErrUpdateFailed,
	serializationFailureCode: store.ErrTransactionFailed,
	deadlockDetectedCode:     store.ErrTransactionFailed,
}

// MapError classifies err under the store sentinels while keeping err in
// the chain. Errors it does not recognise are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	sentinel, ok := sqlStateErrors[pgErr.Code]
	if !ok {
		return err
	}

	detail := pgErr.ConstraintName
	if detail == "" {
		detail = pgErr.ColumnName
	}
	if detail != "" {
		return fmt.Errorf("%w (%s): %w", sentinel, detail, err)
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
