package snippets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PabloPavan/cobit_api/internal/db"
)

// SQLiteRepository stores snippets in the embedded database.
type SQLiteRepository struct {
	db  *db.SQLite
	Now func() time.Time
}

func NewSQLiteRepository(conn *db.SQLite) *SQLiteRepository {
	return &SQLiteRepository{db: conn, Now: time.Now}
}

const (
	sqliteSnippetInsert = `INSERT INTO snippets (id, title, description, code, visibility, creator_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);`

	sqliteSnippetSelectByID = `SELECT ` + sqlSnippetColumns + `
		FROM snippets
		WHERE id = ?;`

	sqliteSnippetListBase = `SELECT ` + sqlSnippetColumns + `
		FROM snippets
		WHERE %s
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?;`

	sqliteSnippetCountBase = `SELECT COUNT(*) FROM snippets WHERE %s;`

	sqliteSnippetUpdate = `UPDATE snippets
		SET title = ?, description = ?, code = ?, updated_at = ?
		WHERE id = ?
		RETURNING visibility, creator_id, created_at, updated_at;`

	sqliteSnippetDelete = `DELETE FROM snippets WHERE id = ?;`
)

func (r *SQLiteRepository) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

func (r *SQLiteRepository) Create(ctx context.Context, s *Snippet) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	now := r.now()
	_, err := r.db.Exec(ctx, sqliteSnippetInsert,
		s.ID,
		s.Title,
		s.Description,
		s.Code,
		string(s.Visibility),
		s.CreatorID,
		now.UnixNano(),
		now.UnixNano(),
	)
	if err != nil {
		return err
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Snippet, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	s, err := scanSQLiteSnippet(r.db.QueryRow(ctx, sqliteSnippetSelectByID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *SQLiteRepository) List(ctx context.Context, f SnippetFilter) ([]*Snippet, error) {
	where, args := sqliteWhere(f)

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	args = append(args, limit, max(f.Offset, 0))

	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, fmt.Sprintf(sqliteSnippetListBase, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snippets := make([]*Snippet, 0, min(limit, 128))
	for rows.Next() {
		s, err := scanSQLiteSnippet(rows)
		if err != nil {
			return nil, err
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snippets, nil
}

func (r *SQLiteRepository) Count(ctx context.Context, f SnippetFilter) (int, error) {
	where, args := sqliteWhere(f)

	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf(sqliteSnippetCountBase, where), args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, s *Snippet) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var (
		visibility string
		createdAt  int64
		updatedAt  int64
	)
	err := r.db.QueryRow(ctx, sqliteSnippetUpdate,
		s.Title,
		s.Description,
		s.Code,
		r.now().UnixNano(),
		s.ID,
	).Scan(&visibility, &s.CreatorID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	s.Visibility = Visibility(visibility)
	s.CreatedAt = time.Unix(0, createdAt).UTC()
	s.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	res, err := r.db.Exec(ctx, sqliteSnippetDelete, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func sqliteWhere(f SnippetFilter) (string, []any) {
	where := []string{"1=1"}
	args := make([]any, 0, 6)

	if f.Visibility != "" {
		where = append(where, "visibility = ?")
		args = append(args, string(f.Visibility))
	}
	if f.Search != "" {
		where = append(where, fmt.Sprintf(
			`(%[1]s(title) LIKE ? ESCAPE '\' OR %[1]s(description) LIKE ? ESCAPE '\' OR %[1]s(id) LIKE ? ESCAPE '\')`,
			db.UnicodeLower,
		))
		p := likePattern(strings.ToLower(f.Search))
		args = append(args, p, p, p)
	}
	return strings.Join(where, " AND "), args
}

func scanSQLiteSnippet(row rowScanner) (*Snippet, error) {
	var (
		s          Snippet
		visibility string
		createdAt  int64
		updatedAt  int64
	)
	if err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.Code,
		&visibility,
		&s.CreatorID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	s.Visibility = Visibility(visibility)
	s.CreatedAt = time.Unix(0, createdAt).UTC()
	s.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &s, nil
}
