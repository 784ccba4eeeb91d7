package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PabloPavan/cobit_api/internal/apperrors"
	"github.com/PabloPavan/cobit_api/internal/session"
	"github.com/PabloPavan/cobit_api/internal/telemetry"
	"github.com/PabloPavan/cobit_api/internal/users"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
}

type SessionManager interface {
	Create(ctx context.Context, userID, email string) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Delete(ctx context.Context, id string) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

type Service struct {
	Users            UserStore
	Sessions         SessionManager
	Tokens           *TokenService
	LoginLimiter     RateLimiter
	PasswordVerifier func(hashed, plain string) error
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ClientIP string `json:"-"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
}

type Principal struct {
	UserID    string
	Email     string
	SessionID string
}

func (s *Service) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	if s.Users == nil || s.Sessions == nil || s.Tokens == nil {
		return LoginResult{}, apperrors.New(apperrors.KindInternal, "auth not configured")
	}

	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := input.Password
	if email == "" || strings.TrimSpace(password) == "" {
		return LoginResult{}, apperrors.New(apperrors.KindInvalidInput, "email and password are required")
	}
	if !strings.Contains(email, "@") {
		return LoginResult{}, apperrors.New(apperrors.KindInvalidInput, "invalid email")
	}

	if err := s.checkLimit(ctx, input.ClientIP, email); err != nil {
		return LoginResult{}, err
	}

	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if !users.IsNotFound(err) {
			telemetry.LogError(ctx, "login user lookup failed", telemetry.LogErr(err))
		}
		return LoginResult{}, apperrors.New(apperrors.KindUnauthorized, "invalid credentials")
	}

	verifier := s.PasswordVerifier
	if verifier == nil {
		verifier = func(hashed, plain string) error {
			return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
		}
	}
	if err := verifier(u.PasswordHash, password); err != nil {
		return LoginResult{}, apperrors.New(apperrors.KindUnauthorized, "invalid credentials")
	}

	sess, err := s.Sessions.Create(ctx, u.ID, u.Email)
	if err != nil {
		return LoginResult{}, apperrors.Wrap(apperrors.KindInternal, "failed to create session", err)
	}

	token, err := s.Tokens.Issue(u.ID, sess.ID, sess.ExpiresAt)
	if err != nil {
		_ = s.Sessions.Delete(ctx, sess.ID)
		return LoginResult{}, apperrors.Wrap(apperrors.KindInternal, "failed to issue token", err)
	}

	telemetry.LogInfo(ctx, "user logged in", telemetry.LogString("user.id", u.ID))
	return LoginResult{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		UserID:    u.ID,
		Email:     u.Email,
	}, nil
}

func (s *Service) checkLimit(ctx context.Context, clientIP, email string) error {
	if s.LoginLimiter == nil {
		return nil
	}

	keys := make([]string, 0, 2)
	if ip := strings.TrimSpace(clientIP); ip != "" {
		keys = append(keys, "login:ip:"+ip)
	}
	keys = append(keys, "login:email:"+email)

	for _, key := range keys {
		allowed, retryAfter, err := s.LoginLimiter.Allow(ctx, key)
		if err != nil {
			return apperrors.Wrap(apperrors.KindInternal, "rate limit error", err)
		}
		if !allowed {
			return apperrors.RateLimit("too many requests", retryAfter)
		}
	}
	return nil
}

// Authenticate resolves a bearer token to its principal. The token must be
// well formed, unexpired and still backed by a live session.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	if s.Sessions == nil || s.Tokens == nil {
		return Principal{}, apperrors.New(apperrors.KindInternal, "auth not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, apperrors.New(apperrors.KindUnauthorized, "missing token")
	}

	claims, err := s.Tokens.Parse(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return Principal{}, apperrors.New(apperrors.KindUnauthorized, "token expired")
		}
		return Principal{}, apperrors.New(apperrors.KindUnauthorized, "invalid token")
	}

	sess, err := s.Sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return Principal{}, apperrors.New(apperrors.KindUnauthorized, "session revoked")
		}
		return Principal{}, apperrors.Wrap(apperrors.KindInternal, "failed to load session", err)
	}
	if sess.UserID != claims.UserID {
		return Principal{}, apperrors.New(apperrors.KindUnauthorized, "invalid token")
	}

	return Principal{UserID: sess.UserID, Email: sess.Email, SessionID: sess.ID}, nil
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if s.Sessions == nil {
		return apperrors.New(apperrors.KindInternal, "auth not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if err := s.Sessions.Delete(ctx, sessionID); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "failed to logout", err)
	}
	return nil
}
