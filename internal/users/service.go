package users

import (
	"context"
	"strings"

	"github.com/PabloPavan/cobit_api/internal"
	"github.com/PabloPavan/cobit_api/internal/apperrors"
	"github.com/PabloPavan/cobit_api/internal/telemetry"
)

const (
	MinPasswordLength = 8

	idAttempts = 3
)

type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type Service struct {
	Store          Store
	PasswordHasher func(plain string) (string, error)
	// IDSuffix disambiguates user ids when two emails share a local part.
	IDSuffix func() string
}

// Register creates an account whose id is the sanitised local part of the
// email address.
func (s *Service) Register(ctx context.Context, req CreateUserRequest) (*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid email")
	}
	if len(req.Password) < MinPasswordLength {
		return nil, apperrors.New(apperrors.KindInvalidInput, "password must have at least 8 characters")
	}

	hasher := s.PasswordHasher
	if hasher == nil {
		hasher = internal.DefaultPasswordHasher
	}
	hash, err := hasher(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to process password", err)
	}

	suffix := s.IDSuffix
	if suffix == nil {
		suffix = func() string { return internal.RandomHex(2) }
	}

	u := &User{
		Email:        email,
		PasswordHash: hash,
	}
	baseID := UserIDFromEmail(email)

	for attempt := 1; ; attempt++ {
		u.ID = baseID
		if attempt > 1 {
			u.ID = baseID + "-" + suffix()
		}

		err := s.Store.Create(ctx, u)
		if err == nil {
			break
		}
		if IsUniqueViolationEmail(err) {
			return nil, apperrors.New(apperrors.KindConflict, "email already exists")
		}
		if !IsUniqueViolationID(err) || attempt >= idAttempts {
			return nil, apperrors.Wrap(apperrors.KindInternal, "failed to create user", err)
		}
	}

	telemetry.LogInfo(ctx, "user registered", telemetry.LogString("user.id", u.ID))
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "user id is required")
	}

	u, err := s.Store.GetByID(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "user not found")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load user", err)
	}
	return u, nil
}

// UserIDFromEmail keeps the characters of the local part that are safe in
// urls and file names.
func UserIDFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}
