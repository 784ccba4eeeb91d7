package snippets

import (
	"context"
	"math"
	"strings"

	"github.com/PabloPavan/cobit_api/internal/apperrors"
	"github.com/PabloPavan/cobit_api/internal/cache"
	"github.com/PabloPavan/cobit_api/internal/identity"
	"github.com/PabloPavan/cobit_api/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	idAttempts = 3
)

type Store interface {
	Create(ctx context.Context, s *Snippet) error
	GetByID(ctx context.Context, id string) (*Snippet, error)
	List(ctx context.Context, f SnippetFilter) ([]*Snippet, error)
	Count(ctx context.Context, f SnippetFilter) (int, error)
	Update(ctx context.Context, s *Snippet) error
	Delete(ctx context.Context, id string) error
}

// Service is the read-through cache in front of the snippet store. Reads
// populate the cache on a miss; writes hit the store first and then drop
// the affected item key and every list page.
type Service struct {
	Store       Store
	Cache       cache.Cache
	IDGenerator func() string

	// RequireAuthor makes writes need a principal on the context and limits
	// update/delete to the snippet's creator.
	RequireAuthor bool
}

func (s *Service) List(ctx context.Context, input ListInput) (*Page, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "snippets store not configured")
	}

	page := input.Page
	if page < 1 {
		page = DefaultPage
	}
	limit := input.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	// keeps (page-1)*limit from overflowing; such a page is always empty
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}
	search := strings.TrimSpace(input.Search)

	ctx, span := telemetry.StartSpan(ctx, "snippets.list",
		attribute.Int("snippets.page", page),
		attribute.Int("snippets.limit", limit),
	)
	defer span.End()

	key := ListKey(page, limit, search)
	var cached Page
	if s.cacheGet(ctx, key, &cached) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &cached, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	filter := SnippetFilter{
		Search:     search,
		Visibility: VisibilityPublic,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}

	total, err := s.Store.Count(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to count snippets", err)
	}
	var list []*Snippet
	if filter.Offset < total {
		list, err = s.Store.List(ctx, filter)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, "failed to list snippets", err)
		}
	}

	out := &Page{
		Snippets:   make([]*PublicSnippet, 0, len(list)),
		Pagination: NewPagination(total, page, limit),
	}
	for _, sn := range list {
		out.Snippets = append(out.Snippets, sn.Public())
	}

	s.cacheSet(ctx, key, out)
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*PublicSnippet, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "snippets store not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "id is required")
	}

	key := ItemKey(id)
	var cached PublicSnippet
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	snippet, err := s.Store.GetByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "snippet not found")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load snippet", err)
	}

	out := snippet.Public()
	s.cacheSet(ctx, key, out)
	return out, nil
}

func (s *Service) Create(ctx context.Context, req CreateSnippetRequest) (*Snippet, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "snippets store not configured")
	}
	creatorID, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" || strings.TrimSpace(req.Code) == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "title, description and code are required")
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = VisibilityPublic
	}
	if !visibility.Valid() {
		return nil, apperrors.New(apperrors.KindInvalidInput, "visibility must be public or private")
	}

	id := strings.TrimSpace(req.ID)
	if id != "" && !ValidID(id) {
		return nil, apperrors.New(apperrors.KindInvalidInput, "id must be 8 to 20 alphanumeric characters")
	}

	idGen := s.IDGenerator
	if idGen == nil {
		idGen = NewID
	}

	snippet := &Snippet{
		Title:       title,
		Description: description,
		Code:        req.Code,
		Visibility:  visibility,
		CreatorID:   creatorID,
	}

	for attempt := 1; ; attempt++ {
		snippet.ID = id
		if snippet.ID == "" {
			snippet.ID = idGen()
		}

		err := s.Store.Create(ctx, snippet)
		if err == nil {
			break
		}
		if !IsUniqueViolationID(err) {
			return nil, apperrors.Wrap(apperrors.KindInternal, "failed to create snippet", err)
		}
		if id != "" || attempt >= idAttempts {
			return nil, apperrors.Wrap(apperrors.KindConflict, "snippet already exists", err)
		}
	}

	s.invalidate(ctx)
	telemetry.LogInfo(ctx, "snippet created",
		telemetry.LogString("snippet.id", snippet.ID),
		telemetry.LogString("snippet.visibility", string(snippet.Visibility)),
	)
	return snippet, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateSnippetRequest) (*PublicSnippet, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "snippets store not configured")
	}
	existing, err := s.loadForWrite(ctx, id)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" || strings.TrimSpace(req.Code) == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "title, description and code are required")
	}

	existing.Title = title
	existing.Description = description
	existing.Code = req.Code

	if err := s.Store.Update(ctx, existing); err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "snippet not found")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to update snippet", err)
	}

	s.invalidate(ctx, existing.ID)
	telemetry.LogInfo(ctx, "snippet updated", telemetry.LogString("snippet.id", existing.ID))
	return existing.Public(), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if s.Store == nil {
		return apperrors.New(apperrors.KindInternal, "snippets store not configured")
	}
	existing, err := s.loadForWrite(ctx, id)
	if err != nil {
		return err
	}

	if err := s.Store.Delete(ctx, existing.ID); err != nil {
		if IsNotFound(err) {
			return apperrors.New(apperrors.KindNotFound, "snippet not found")
		}
		return apperrors.Wrap(apperrors.KindInternal, "failed to delete snippet", err)
	}

	s.invalidate(ctx, existing.ID)
	telemetry.LogInfo(ctx, "snippet deleted", telemetry.LogString("snippet.id", existing.ID))
	return nil
}

// loadForWrite resolves the snippet an update or delete targets and applies
// the author policy. A missing snippet wins over a policy failure.
func (s *Service) loadForWrite(ctx context.Context, id string) (*Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "id is required")
	}

	existing, err := s.Store.GetByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "snippet not found")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load snippet", err)
	}

	requesterID, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}
	if s.RequireAuthor && existing.CreatorID != requesterID {
		return nil, apperrors.New(apperrors.KindForbidden, "forbidden")
	}
	return existing, nil
}

func (s *Service) principal(ctx context.Context) (string, error) {
	userID, ok := identity.UserID(ctx)
	userID = strings.TrimSpace(userID)
	if s.RequireAuthor && (!ok || userID == "") {
		return "", apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	return userID, nil
}

func (s *Service) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.Cache == nil {
		return false
	}
	ok, err := cache.GetJSON(ctx, s.Cache, key, dst)
	if err != nil {
		telemetry.LogWarn(ctx, "cache get failed",
			telemetry.LogString("cache.key", key),
			telemetry.LogErr(err),
		)
		return false
	}
	return ok
}

func (s *Service) cacheSet(ctx context.Context, key string, v any) {
	if s.Cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.Cache, key, v); err != nil {
		telemetry.LogWarn(ctx, "cache set failed",
			telemetry.LogString("cache.key", key),
			telemetry.LogErr(err),
		)
	}
}

// invalidate drops the given item keys and every list page. Failures are
// logged; the entries then live until their TTL runs out.
func (s *Service) invalidate(ctx context.Context, ids ...string) {
	if s.Cache == nil {
		return
	}
	for _, id := range ids {
		if err := s.Cache.Del(ctx, ItemKey(id)); err != nil {
			telemetry.LogWarn(ctx, "cache delete failed",
				telemetry.LogString("cache.key", ItemKey(id)),
				telemetry.LogErr(err),
			)
		}
	}
	n, err := s.Cache.DeleteMatching(ctx, ListPattern)
	if err != nil {
		telemetry.LogWarn(ctx, "cache invalidation failed",
			telemetry.LogString("cache.pattern", ListPattern),
			telemetry.LogErr(err),
		)
		return
	}
	if n > 0 {
		telemetry.LogInfo(ctx, "list pages invalidated", telemetry.LogInt("cache.keys", n))
	}
}
