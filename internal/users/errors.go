package users

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("user not found")

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) || errors.Is(err, ErrNotFound)
}

func IsUniqueViolationEmail(err error) bool {
	return isUniqueViolation(err, "users_email_key", "email")
}

func IsUniqueViolationID(err error) bool {
	return isUniqueViolation(err, "users_pkey", "id")
}

func isUniqueViolation(err error, constraint, column string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 = unique_violation
		if pgErr.Code != "23505" {
			return false
		}
		return pgErr.ConstraintName == constraint || pgErr.ColumnName == column
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed: users."+column)
}
