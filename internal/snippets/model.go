package snippets

import "time"

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

const GuestUsername = "Guest"

// Snippet is the stored record, returned to the caller that created it.
type Snippet struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Code        string     `json:"code"`
	Visibility  Visibility `json:"visibility"`

	// empty for snippets created anonymously
	CreatorID string `json:"creatorId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PublicSnippet is what listings, lookups by id and updates return. It
// carries no visibility flag and names the author instead of exposing ids.
type PublicSnippet struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Code        string    `json:"code"`
	Username    string    `json:"username"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s *Snippet) Public() *PublicSnippet {
	username := s.CreatorID
	if username == "" {
		username = GuestUsername
	}
	return &PublicSnippet{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Code:        s.Code,
		Username:    username,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

type CreateSnippetRequest struct {
	// optional; generated when empty
	ID          string
	Title       string
	Description string
	Code        string
	Visibility  Visibility
}

type UpdateSnippetRequest struct {
	Title       string
	Description string
	Code        string
}

type ListInput struct {
	Page   int
	Limit  int
	Search string
}

// SnippetFilter is what stores understand. Search is a raw substring; each
// store escapes it for its LIKE dialect.
type SnippetFilter struct {
	Search     string
	Visibility Visibility
	Limit      int
	Offset     int
}

type Pagination struct {
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Pages   int  `json:"pages"`
	HasMore bool `json:"hasMore"`
}

type Page struct {
	Snippets   []*PublicSnippet `json:"snippets"`
	Pagination Pagination       `json:"pagination"`
}

func NewPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Pages:   pages,
		HasMore: page < pages,
	}
}
