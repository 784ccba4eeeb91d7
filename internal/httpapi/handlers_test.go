package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PabloPavan/cobit_api/internal/apperrors"
	"github.com/PabloPavan/cobit_api/internal/auth"
	"github.com/PabloPavan/cobit_api/internal/cache"
	"github.com/PabloPavan/cobit_api/internal/identity"
	"github.com/PabloPavan/cobit_api/internal/snippets"
	"github.com/PabloPavan/cobit_api/internal/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snippetsStub struct {
	createFn func(ctx context.Context, req snippets.CreateSnippetRequest) (*snippets.Snippet, error)
	getFn    func(ctx context.Context, id string) (*snippets.PublicSnippet, error)
	listFn   func(ctx context.Context, input snippets.ListInput) (*snippets.Page, error)
	updateFn func(ctx context.Context, id string, req snippets.UpdateSnippetRequest) (*snippets.PublicSnippet, error)
	deleteFn func(ctx context.Context, id string) error
}

func (s *snippetsStub) Create(ctx context.Context, req snippets.CreateSnippetRequest) (*snippets.Snippet, error) {
	if s.createFn != nil {
		return s.createFn(ctx, req)
	}
	return &snippets.Snippet{ID: "abcd1234", Title: req.Title, Visibility: snippets.VisibilityPublic}, nil
}

func (s *snippetsStub) GetByID(ctx context.Context, id string) (*snippets.PublicSnippet, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return nil, apperrors.New(apperrors.KindNotFound, "snippet not found")
}

func (s *snippetsStub) List(ctx context.Context, input snippets.ListInput) (*snippets.Page, error) {
	if s.listFn != nil {
		return s.listFn(ctx, input)
	}
	return &snippets.Page{Snippets: []*snippets.PublicSnippet{}}, nil
}

func (s *snippetsStub) Update(ctx context.Context, id string, req snippets.UpdateSnippetRequest) (*snippets.PublicSnippet, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, req)
	}
	return nil, apperrors.New(apperrors.KindNotFound, "snippet not found")
}

func (s *snippetsStub) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

type authStub struct {
	loginFn  func(ctx context.Context, input auth.LoginInput) (auth.LoginResult, error)
	authFn   func(ctx context.Context, token string) (auth.Principal, error)
	logoutFn func(ctx context.Context, sessionID string) error
}

func (a *authStub) Login(ctx context.Context, input auth.LoginInput) (auth.LoginResult, error) {
	if a.loginFn != nil {
		return a.loginFn(ctx, input)
	}
	return auth.LoginResult{}, apperrors.New(apperrors.KindUnauthorized, "invalid credentials")
}

func (a *authStub) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	if a.authFn != nil {
		return a.authFn(ctx, token)
	}
	if token == "good" {
		return auth.Principal{UserID: "dev", Email: "dev@example.com", SessionID: "sess-1"}, nil
	}
	return auth.Principal{}, apperrors.New(apperrors.KindUnauthorized, "invalid token")
}

func (a *authStub) Logout(ctx context.Context, sessionID string) error {
	if a.logoutFn != nil {
		return a.logoutFn(ctx, sessionID)
	}
	return nil
}

type usersStub struct {
	registerFn func(ctx context.Context, req users.CreateUserRequest) (*users.User, error)
}

func (u *usersStub) Register(ctx context.Context, req users.CreateUserRequest) (*users.User, error) {
	if u.registerFn != nil {
		return u.registerFn(ctx, req)
	}
	return &users.User{ID: "dev", Email: strings.ToLower(req.Email)}, nil
}

type pingStub struct{ err error }

func (p pingStub) Ping(context.Context) error { return p.err }

func newTestRouter(sn *snippetsStub, au *authStub) http.Handler {
	return NewRouter(&App{
		ServiceName: "cobit-test",
		Health: &HealthHandler{
			DB:    pingStub{},
			Cache: cache.NewInstrumented(cache.NewMemoryCache(time.Minute), "cobit-test"),
		},
		Snippets:      &SnippetsHandler{Service: sn},
		Auth:          &AuthHandler{Auth: au, Users: &usersStub{}},
		Authenticator: au,
	})
}

func do(t *testing.T, h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestListPassesQueryParams(t *testing.T) {
	var got snippets.ListInput
	sn := &snippetsStub{listFn: func(ctx context.Context, input snippets.ListInput) (*snippets.Page, error) {
		got = input
		return &snippets.Page{
			Snippets:   []*snippets.PublicSnippet{{ID: "abcd1234", Username: snippets.GuestUsername}},
			Pagination: snippets.NewPagination(1, 2, 5),
		}, nil
	}}
	h := newTestRouter(sn, &authStub{})

	rec := do(t, h, http.MethodGet, "/api/snippets?page=2&limit=5&search=quick", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, snippets.ListInput{Page: 2, Limit: 5, Search: "quick"}, got)

	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Contains(t, body, "snippets")
	assert.Contains(t, body, "pagination")
}

func TestListBadNumbersFallBack(t *testing.T) {
	var got snippets.ListInput
	sn := &snippetsStub{listFn: func(ctx context.Context, input snippets.ListInput) (*snippets.Page, error) {
		got = input
		return &snippets.Page{}, nil
	}}
	h := newTestRouter(sn, &authStub{})

	rec := do(t, h, http.MethodGet, "/api/snippets?page=abc&limit=", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, got.Page)
	assert.Equal(t, 0, got.Limit)
}

func TestCreateValidation(t *testing.T) {
	called := false
	sn := &snippetsStub{createFn: func(ctx context.Context, req snippets.CreateSnippetRequest) (*snippets.Snippet, error) {
		called = true
		return nil, nil
	}}
	h := newTestRouter(sn, &authStub{})

	cases := []string{
		`{"title":"","description":"d","code":"c"}`,
		`{"title":"t","description":"   ","code":"c"}`,
		`{"title":"t","description":"d","code":"c","visibility":"secret"}`,
		`{"id":"bad-id!","title":"t","description":"d","code":"c"}`,
		`{not json`,
	}
	for _, body := range cases {
		rec := do(t, h, http.MethodPost, "/api/snippets", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)

		var resp errorResponse
		decodeBody(t, rec, &resp)
		assert.NotEmpty(t, resp.Error, body)
	}
	assert.False(t, called)
}

func TestCreateReturnsCreated(t *testing.T) {
	var got snippets.CreateSnippetRequest
	var principal string
	sn := &snippetsStub{createFn: func(ctx context.Context, req snippets.CreateSnippetRequest) (*snippets.Snippet, error) {
		got = req
		principal, _ = identity.UserID(ctx)
		return &snippets.Snippet{ID: "abcd1234", Title: req.Title, Visibility: snippets.VisibilityPublic, CreatorID: principal}, nil
	}}
	h := newTestRouter(sn, &authStub{})

	rec := do(t, h, http.MethodPost, "/api/snippets",
		`{"title":"Hello","description":"prints hello","code":"print('hi')"}`,
		map[string]string{"Authorization": "Bearer good"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, "dev", principal)

	var body snippets.Snippet
	decodeBody(t, rec, &body)
	assert.Equal(t, "abcd1234", body.ID)
	assert.Equal(t, snippets.VisibilityPublic, body.Visibility)
}

func TestSnippetRoutesRejectBadToken(t *testing.T) {
	h := newTestRouter(&snippetsStub{}, &authStub{})

	rec := do(t, h, http.MethodGet, "/api/snippets", "", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/snippets", "", map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetNotFound(t *testing.T) {
	h := newTestRouter(&snippetsStub{}, &authStub{})

	rec := do(t, h, http.MethodGet, "/api/snippets/missing1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body errorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "snippet not found", body.Error)
}

func TestUpdateDefersRequiredFieldsToService(t *testing.T) {
	var gotID string
	sn := &snippetsStub{updateFn: func(ctx context.Context, id string, req snippets.UpdateSnippetRequest) (*snippets.PublicSnippet, error) {
		gotID = id
		return nil, apperrors.New(apperrors.KindNotFound, "snippet not found")
	}}
	h := newTestRouter(sn, &authStub{})

	rec := do(t, h, http.MethodPut, "/api/snippets/ghost123", `{"title":"t","description":"","code":"c"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ghost123", gotID)
}

func TestDeleteReturnsMessage(t *testing.T) {
	h := newTestRouter(&snippetsStub{}, &authStub{})

	rec := do(t, h, http.MethodDelete, "/api/snippets/abcd1234", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body MessageResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "Deleted successfully", body.Message)
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	sn := &snippetsStub{listFn: func(ctx context.Context, input snippets.ListInput) (*snippets.Page, error) {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to list snippets", context.DeadlineExceeded)
	}}
	h := newTestRouter(sn, &authStub{})

	rec := do(t, h, http.MethodGet, "/api/snippets", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body errorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "internal error", body.Error)
}

func TestLoginBasicAndRateLimit(t *testing.T) {
	var got auth.LoginInput
	au := &authStub{loginFn: func(ctx context.Context, input auth.LoginInput) (auth.LoginResult, error) {
		got = input
		if input.Password == "secret123" {
			return auth.LoginResult{Token: "tok", UserID: "dev", Email: input.Email}, nil
		}
		return auth.LoginResult{}, apperrors.RateLimit("too many requests", 1500*time.Millisecond)
	}}
	h := newTestRouter(&snippetsStub{}, au)

	req := httptest.NewRequest(http.MethodGet, "/api/login", nil)
	req.SetBasicAuth("dev@example.com", "secret123")
	req.RemoteAddr = "10.1.2.3:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10.1.2.3", got.ClientIP)
	var res auth.LoginResult
	decodeBody(t, rec, &res)
	assert.Equal(t, "tok", res.Token)

	rec = do(t, h, http.MethodPost, "/api/login", `{"email":"dev@example.com","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	rec = do(t, h, http.MethodGet, "/api/login", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyAndLogout(t *testing.T) {
	var loggedOut string
	au := &authStub{logoutFn: func(ctx context.Context, sessionID string) error {
		loggedOut = sessionID
		return nil
	}}
	h := newTestRouter(&snippetsStub{}, au)

	rec := do(t, h, http.MethodGet, "/api/verify", "", map[string]string{"Authorization": "Bearer good"})
	require.Equal(t, http.StatusOK, rec.Code)
	var ok VerifyResponse
	decodeBody(t, rec, &ok)
	assert.True(t, ok.Valid)
	assert.Equal(t, "dev", ok.UserID)

	rec = do(t, h, http.MethodGet, "/api/verify", "", map[string]string{"Authorization": "Bearer bad"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var bad VerifyResponse
	decodeBody(t, rec, &bad)
	assert.False(t, bad.Valid)

	rec = do(t, h, http.MethodPost, "/api/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/logout", "", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "sess-1", loggedOut)
}

func TestRegister(t *testing.T) {
	h := newTestRouter(&snippetsStub{}, &authStub{})

	rec := do(t, h, http.MethodPost, "/api/register", `{"email":"Dev@Example.com","password":"secret123"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var body users.UserResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "dev", body.UserID)

	rec = do(t, h, http.MethodPost, "/api/register", `{"email":"nope","password":"secret123"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/register", `{"email":"a@b.co","password":"short"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newTestRouter(&snippetsStub{}, &authStub{})

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Cache)

	rec = do(t, h, http.MethodGet, "/health/cache", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats cache.Stats
	decodeBody(t, rec, &stats)
	assert.Equal(t, "memory", stats.Backend)
}
