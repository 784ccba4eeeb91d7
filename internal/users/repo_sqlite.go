package users

import (
	"context"
	"time"

	"github.com/PabloPavan/cobit_api/internal/db"
)

type SQLiteRepository struct {
	db  *db.SQLite
	Now func() time.Time
}

func NewSQLiteRepository(conn *db.SQLite) *SQLiteRepository {
	return &SQLiteRepository{db: conn, Now: time.Now}
}

const (
	sqliteUserInsert = `INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	sqliteUserGetByEmail = `SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = ?`

	sqliteUserGetByID = `SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = ?`
)

func (r *SQLiteRepository) Create(ctx context.Context, u *User) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	if r.Now != nil {
		now = r.Now().UTC()
	}
	if _, err := r.db.Exec(ctx, sqliteUserInsert, u.ID, u.Email, u.PasswordHash, now.UnixNano(), now.UnixNano()); err != nil {
		return err
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, sqliteUserGetByEmail, email)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, sqliteUserGetByID, id)
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, arg string) (*User, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var (
		u         User
		createdAt int64
		updatedAt int64
	)
	err := r.db.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt, &updatedAt)
	if IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = time.Unix(0, createdAt).UTC()
	u.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &u, nil
}
