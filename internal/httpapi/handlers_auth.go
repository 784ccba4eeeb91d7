package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/PabloPavan/cobit_api/internal/apperrors"
	"github.com/PabloPavan/cobit_api/internal/auth"
	"github.com/PabloPavan/cobit_api/internal/identity"
	"github.com/PabloPavan/cobit_api/internal/users"
)

type AuthService interface {
	Login(ctx context.Context, input auth.LoginInput) (auth.LoginResult, error)
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
	Logout(ctx context.Context, sessionID string) error
}

type UsersService interface {
	Register(ctx context.Context, req users.CreateUserRequest) (*users.User, error)
}

type AuthHandler struct {
	Auth  AuthService
	Users UsersService
}

type VerifyResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Register Auth
// @Summary Register a user
// @Tags auth
// @Accept json
// @Produce json
// @Param body body UserCreateDTO true "account"
// @Success 201 {object} users.UserResponse
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req UserCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.Users.Register(r.Context(), users.CreateUserRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, u.Response())
}

// LoginBasic Auth
// @Summary Login with basic auth
// @Tags auth
// @Produce json
// @Security BasicAuth
// @Success 200 {object} auth.LoginResult
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 429 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /login [get]
func (h *AuthHandler) LoginBasic(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		w.Header().Set("WWW-Authenticate", `Basic realm="cobit"`)
		writeError(w, http.StatusUnauthorized, "basic credentials required")
		return
	}
	h.login(w, r, email, password)
}

// Login Auth
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginDTO true "credentials"
// @Success 200 {object} auth.LoginResult
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 429 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.login(w, r, req.Email, req.Password)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, email, password string) {
	res, err := h.Auth.Login(r.Context(), auth.LoginInput{
		Email:    email,
		Password: password,
		ClientIP: clientIP(r),
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Verify Auth
// @Summary Verify a bearer token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} VerifyResponse
// @Failure 401 {object} VerifyResponse
// @Router /verify [get]
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		writeJSON(w, http.StatusUnauthorized, VerifyResponse{Error: "missing bearer token"})
		return
	}

	p, err := h.Auth.Authenticate(r.Context(), token)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindInternal) {
			writeJSON(w, http.StatusInternalServerError, VerifyResponse{Error: "internal error"})
			return
		}
		writeJSON(w, http.StatusUnauthorized, VerifyResponse{Error: "invalid token"})
		return
	}

	writeJSON(w, http.StatusOK, VerifyResponse{Valid: true, UserID: p.UserID, Email: p.Email})
}

// Logout Auth
// @Summary Logout
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := identity.SessionID(r.Context())
	if err := h.Auth.Logout(r.Context(), sessionID); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clientIP expects middleware.RealIP to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
