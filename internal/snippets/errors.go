package snippets

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("snippet not found")
)

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) || errors.Is(err, ErrNotFound)
}

func IsUniqueViolationID(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != "23505" { // unique_violation
			return false
		}
		return pgErr.ConstraintName == "snippets_pkey" || pgErr.ColumnName == "id"
	}

	// modernc reports constraint failures only through the message
	return strings.Contains(err.Error(), "UNIQUE constraint failed: snippets.id")
}
