package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// EsViolacionUnica reports whether err comes from a unique constraint.
func EsViolacionUnica(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// EsNoEncontrado reports whether err is a missing-row error.
func EsNoEncontrado(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
