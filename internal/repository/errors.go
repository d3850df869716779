package repository

import (
	"errors"

	"socialgraph/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// translateError maps storage failures onto engine error kinds.
// duplicate builds the error reported for a unique-constraint violation.
func translateError(err error, duplicate func() *models.AppError) error {
	if err == nil {
		return nil
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case isUniqueViolation(err):
		if duplicate != nil {
			return duplicate()
		}
	case isCheckViolation(err):
		return models.NewSelfRelationError("Users cannot relate to themselves")
	}
	return models.NewInternalError(err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if code, ok := pgErrorCode(err); ok {
		return code == pgUniqueViolation
	}
	if sqliteErr, ok := asSQLiteError(err); ok {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// isCheckViolation also inspects driver errors because the sqlite dialector
// does not translate CHECK failures.
func isCheckViolation(err error) bool {
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	if code, ok := pgErrorCode(err); ok {
		return code == pgCheckViolation
	}
	if sqliteErr, ok := asSQLiteError(err); ok {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintCheck
	}
	return false
}

func pgErrorCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	return "", false
}

func asSQLiteError(err error) (sqlite3.Error, bool) {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr, true
	}
	var sqliteErrPtr *sqlite3.Error
	if errors.As(err, &sqliteErrPtr) && sqliteErrPtr != nil {
		return *sqliteErrPtr, true
	}
	return sqlite3.Error{}, false
}
