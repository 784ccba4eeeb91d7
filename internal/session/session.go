// Package session keeps server side login sessions. A bearer token names
// its session, so deleting the session revokes the token before it expires.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/xid"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Store interface {
	Set(ctx context.Context, id string, s Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

type Manager struct {
	Store Store
	TTL   time.Duration
	Now   func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *Manager) Create(ctx context.Context, userID, email string) (*Session, error) {
	if m.Store == nil {
		return nil, errors.New("session store not configured")
	}
	ttl := m.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	now := m.now().UTC()
	s := Session{
		ID:        xid.NewWithTime(now).String(),
		UserID:    userID,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := m.Store.Set(ctx, s.ID, s, ttl); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if m.Store == nil {
		return nil, errors.New("session store not configured")
	}
	if _, err := xid.FromString(id); err != nil {
		return nil, ErrNotFound
	}

	sess, err := m.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.now().Before(sess.ExpiresAt) {
		_ = m.Store.Delete(ctx, id)
		return nil, ErrNotFound
	}
	return sess, nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	if m.Store == nil {
		return errors.New("session store not configured")
	}
	return m.Store.Delete(ctx, id)
}
