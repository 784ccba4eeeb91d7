package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const DefaultAPIURL = "http://localhost:8080/api"

type SnippetInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Code        string `json:"code"`
	Visibility  string `json:"visibility,omitempty"`
}

// RemoteSnippet covers both the created record and the public projection.
type RemoteSnippet struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Code        string `json:"code"`
	Visibility  string `json:"visibility,omitempty"`
	Username    string `json:"username,omitempty"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

type userAgentRoundTripper struct {
	Wrapped   http.RoundTripper
	UserAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", rt.UserAgent)
	return rt.Wrapped.RoundTrip(clone)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, base *http.Client) *Client {
	if base == nil {
		base = &http.Client{}
	}
	if base.Transport == nil {
		base.Transport = http.DefaultTransport
	}
	base.Transport = &userAgentRoundTripper{Wrapped: base.Transport, UserAgent: "cobit-cli"}
	if base.Timeout == 0 {
		base.Timeout = 15 * time.Second
	}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &Client{BaseURL: baseURL, HTTP: base}
}

// client returns an http.Client that sends token as a bearer credential.
func (c *Client) client(ctx context.Context, token string) *http.Client {
	if token == "" {
		return c.HTTP
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.HTTP)
	authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	authed.Timeout = c.HTTP.Timeout
	return authed
}

func (c *Client) CreateSnippet(ctx context.Context, token string, in SnippetInput) (*RemoteSnippet, error) {
	var out RemoteSnippet
	if err := c.do(ctx, c.client(ctx, token), http.MethodPost, "/snippets", in, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSnippet(ctx context.Context, id string) (*RemoteSnippet, error) {
	var out RemoteSnippet
	if err := c.do(ctx, c.HTTP, http.MethodGet, "/snippets/"+url.PathEscape(id), nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSnippet(ctx context.Context, token, id string, in SnippetInput) (*RemoteSnippet, error) {
	var out RemoteSnippet
	if err := c.do(ctx, c.client(ctx, token), http.MethodPut, "/snippets/"+url.PathEscape(id), in, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, c.HTTP, http.MethodGet, "/login", nil, &out, func(req *http.Request) {
		req.SetBasicAuth(email, password)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify reports whether the server still accepts token.
func (c *Client) Verify(ctx context.Context, token string) (bool, error) {
	var out struct {
		Valid bool `json:"valid"`
	}
	err := c.do(ctx, c.client(ctx, token), http.MethodGet, "/verify", nil, &out, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return out.Valid, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, c.client(ctx, token), http.MethodPost, "/logout", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, in, out any, prepare func(*http.Request)) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prepare != nil {
		prepare(req)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorText(raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func errorText(raw []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
