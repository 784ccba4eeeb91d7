package snippets

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloPavan/cobit_api/internal/db"
	"github.com/jackc/pgx/v5"
)

type Repository struct {
	base *db.Base
}

func NewRepository(base *db.Base) *Repository {
	return &Repository{base: base}
}

const (
	sqlSnippetColumns = `id, title, description, code, visibility, creator_id, created_at, updated_at`

	sqlSnippetInsert = `INSERT INTO snippets (id, title, description, code, visibility, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at;`

	sqlSnippetSelectByID = `SELECT ` + sqlSnippetColumns + `
		FROM snippets
		WHERE id = $1
		LIMIT 1;`

	sqlSnippetListBase = `SELECT ` + sqlSnippetColumns + `
		FROM snippets
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d;`

	sqlSnippetCountBase = `SELECT COUNT(*) FROM snippets WHERE %s;`

	sqlSnippetUpdate = `UPDATE snippets
		SET title = $1, description = $2, code = $3, updated_at = now()
		WHERE id = $4
		RETURNING visibility, creator_id, created_at, updated_at;`

	sqlSnippetDelete = `DELETE FROM snippets WHERE id = $1;`
)

func (r *Repository) Create(ctx context.Context, s *Snippet) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	return r.base.Q().QueryRow(ctx, sqlSnippetInsert,
		s.ID,
		s.Title,
		s.Description,
		s.Code,
		string(s.Visibility),
		s.CreatorID,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Snippet, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	s, err := scanSnippet(r.base.Q().QueryRow(ctx, sqlSnippetSelectByID, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *Repository) List(ctx context.Context, f SnippetFilter) ([]*Snippet, error) {
	where, args := pgWhere(f)

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := max(f.Offset, 0)

	limitPos := len(args) + 1
	offsetPos := len(args) + 2
	args = append(args, limit, offset)

	query := fmt.Sprintf(sqlSnippetListBase, where, limitPos, offsetPos)

	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snippets := make([]*Snippet, 0, min(limit, 128))
	for rows.Next() {
		s, err := scanSnippet(rows)
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

func (r *Repository) Count(ctx context.Context, f SnippetFilter) (int, error) {
	where, args := pgWhere(f)

	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	var total int
	if err := r.base.Q().QueryRow(ctx, fmt.Sprintf(sqlSnippetCountBase, where), args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *Repository) Update(ctx context.Context, s *Snippet) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	var visibility string
	err := r.base.Q().QueryRow(ctx, sqlSnippetUpdate,
		s.Title,
		s.Description,
		s.Code,
		s.ID,
	).Scan(&visibility, &s.CreatorID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	s.Visibility = Visibility(visibility)
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlSnippetDelete, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func pgWhere(f SnippetFilter) (string, []any) {
	where := []string{"1=1"}
	args := make([]any, 0, 4)
	argPos := 1

	if f.Visibility != "" {
		where = append(where, fmt.Sprintf("visibility = $%d", argPos))
		args = append(args, string(f.Visibility))
		argPos++
	}
	if f.Search != "" {
		where = append(where, fmt.Sprintf(
			`(title ILIKE $%d ESCAPE '\' OR description ILIKE $%d ESCAPE '\' OR id ILIKE $%d ESCAPE '\')`,
			argPos, argPos, argPos))
		args = append(args, likePattern(f.Search))
	}
	return strings.Join(where, " AND "), args
}

// likePattern wraps term for a substring LIKE, escaping the wildcards so a
// search for "50%" matches the text "50%" only.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row rowScanner) (*Snippet, error) {
	var s Snippet
	var visibility string
	if err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.Code,
		&visibility,
		&s.CreatorID,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.Visibility = Visibility(visibility)
	return &s, nil
}
