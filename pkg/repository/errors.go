package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	sqlite "modernc.org/sqlite"
)

const (
	pgDuplicateKeyCode = "23505"
	sqliteConstraint   = 19 // SQLITE_CONSTRAINT primary code
)

// MapError translates database errors to domain errors. sql.ErrNoRows maps
// to notFoundErr; unique/constraint violations from either backend map to
// duplicateErr. Other errors are returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgDuplicateKeyCode {
		return duplicateErr
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code()&0xff == sqliteConstraint {
		return duplicateErr
	}

	return err
}
