package snippets

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PabloPavan/cobit_api/internal/apperrors"
	"github.com/PabloPavan/cobit_api/internal/cache"
	"github.com/PabloPavan/cobit_api/internal/db"
)

type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

// Now advances one millisecond per call so rows get distinct timestamps.
func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func newSQLiteService(t *testing.T) (*Service, *SQLiteRepository, *cache.MemoryCache) {
	t.Helper()
	conn, err := db.OpenSQLite(context.Background(), "sqlite:"+filepath.Join(t.TempDir(), "snippets.db"), 0)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	repo := NewSQLiteRepository(conn)
	clock := &tickClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	repo.Now = clock.Now

	c := cache.NewMemoryCache(time.Hour)
	return &Service{Store: repo, Cache: c}, repo, c
}

func mustCreate(t *testing.T, svc *Service, req CreateSnippetRequest) *Snippet {
	t.Helper()
	s, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create %q: %v", req.Title, err)
	}
	return s
}

func listIDs(p *Page) []string {
	ids := make([]string, 0, len(p.Snippets))
	for _, s := range p.Snippets {
		ids = append(ids, s.ID)
	}
	return ids
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestSnippetLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSQLiteService(t)

	// warm the list cache before anything exists
	before, err := svc.List(ctx, ListInput{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if before.Pagination.Total != 0 {
		t.Fatalf("expected empty store, got %d", before.Pagination.Total)
	}

	created := mustCreate(t, svc, CreateSnippetRequest{Title: "Hello", Description: "prints hello", Code: "print('hi')"})
	if !ValidID(created.ID) {
		t.Fatalf("id %q does not match [A-Za-z0-9]{8,20}", created.ID)
	}
	if created.Visibility != VisibilityPublic {
		t.Fatalf("expected public default, got %s", created.Visibility)
	}

	after, err := svc.List(ctx, ListInput{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !contains(listIDs(after), created.ID) {
		t.Fatalf("new snippet missing from cached list page")
	}

	if _, err := svc.GetByID(ctx, created.ID); err != nil {
		t.Fatalf("get: %v", err)
	}

	updated, err := svc.Update(ctx, created.ID, UpdateSnippetRequest{Title: "Hello2", Description: "prints hello", Code: "print('hi')"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("updatedAt not refreshed: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}

	got, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Hello2" {
		t.Fatalf("stale item after update: %q", got.Title)
	}

	listed, err := svc.List(ctx, ListInput{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed.Snippets) != 1 || listed.Snippets[0].Title != "Hello2" {
		t.Fatalf("stale list after update: %+v", listed.Snippets)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = svc.GetByID(ctx, created.ID)
	assertKind(t, err, apperrors.KindNotFound)
	assertKind(t, svc.Delete(ctx, created.ID), apperrors.KindNotFound)

	empty, err := svc.List(ctx, ListInput{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(empty.Snippets) != 0 {
		t.Fatalf("deleted snippet still listed")
	}
}

func TestPrivateSnippetsAreUnlisted(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSQLiteService(t)

	hidden := mustCreate(t, svc, CreateSnippetRequest{Title: "Secret sauce", Description: "d", Code: "c", Visibility: VisibilityPrivate})
	mustCreate(t, svc, CreateSnippetRequest{Title: "Open sauce", Description: "d", Code: "c"})

	for _, search := range []string{"", "sauce", "secret", hidden.ID} {
		page, err := svc.List(ctx, ListInput{Page: 1, Limit: 10, Search: search})
		if err != nil {
			t.Fatalf("list %q: %v", search, err)
		}
		if contains(listIDs(page), hidden.ID) {
			t.Fatalf("private snippet listed for search %q", search)
		}
	}

	got, err := svc.GetByID(ctx, hidden.ID)
	if err != nil {
		t.Fatalf("private snippet must be readable by id: %v", err)
	}
	if got.Title != "Secret sauce" {
		t.Fatalf("unexpected title: %s", got.Title)
	}
}

func TestListPaginationAndOrder(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSQLiteService(t)

	var created []string
	for i := 0; i < 25; i++ {
		s := mustCreate(t, svc, CreateSnippetRequest{Title: fmt.Sprintf("snippet %02d", i), Description: "d", Code: "c"})
		created = append(created, s.ID)
	}

	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		p, err := svc.List(ctx, ListInput{Page: page, Limit: 10})
		if err != nil {
			t.Fatalf("list page %d: %v", page, err)
		}
		if p.Pagination.Total != 25 || p.Pagination.Pages != 3 {
			t.Fatalf("unexpected pagination: %+v", p.Pagination)
		}
		if p.Pagination.HasMore != (page < 3) {
			t.Fatalf("page %d hasMore=%v", page, p.Pagination.HasMore)
		}
		for _, s := range p.Snippets {
			if seen[s.ID] {
				t.Fatalf("snippet %s appears on two pages", s.ID)
			}
			seen[s.ID] = true
		}
		if page == 1 && p.Snippets[0].ID != created[len(created)-1] {
			t.Fatalf("expected newest first, got %s", p.Snippets[0].ID)
		}
	}
	if len(seen) != 25 {
		t.Fatalf("expected 25 distinct snippets, got %d", len(seen))
	}
}

func TestSearchMatching(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSQLiteService(t)

	qs := mustCreate(t, svc, CreateSnippetRequest{Title: "Quick Sort", Description: "divide and conquer", Code: "c"})
	mustCreate(t, svc, CreateSnippetRequest{Title: "Bubble", Description: "slow 100%_done", Code: "c"})

	for _, term := range []string{"quick", "Sort", "CONQUER", qs.ID, strings.ToLower(qs.ID)} {
		p, err := svc.List(ctx, ListInput{Page: 1, Limit: 10, Search: term})
		if err != nil {
			t.Fatalf("search %q: %v", term, err)
		}
		if !contains(listIDs(p), qs.ID) {
			t.Fatalf("search %q did not match Quick Sort", term)
		}
	}

	fr := mustCreate(t, svc, CreateSnippetRequest{Title: "Écrire un Fichier", Description: "Überblick", Code: "c"})
	for _, term := range []string{"écrire", "ÉCRIRE", "Écrire", "überblick", "ÜBERBLICK"} {
		p, err := svc.List(ctx, ListInput{Page: 1, Limit: 10, Search: term})
		if err != nil {
			t.Fatalf("search %q: %v", term, err)
		}
		if !contains(listIDs(p), fr.ID) || p.Pagination.Total != 1 {
			t.Fatalf("search %q: got %v total %d", term, listIDs(p), p.Pagination.Total)
		}
	}

	p, err := svc.List(ctx, ListInput{Page: 1, Limit: 10, Search: "%"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(p.Snippets) != 1 || p.Snippets[0].Title != "Bubble" {
		t.Fatalf("wildcards must be literal, got %v", listIDs(p))
	}

	p, err = svc.List(ctx, ListInput{Page: 1, Limit: 10, Search: "q_ick"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(p.Snippets) != 0 {
		t.Fatalf("underscore must be literal, got %v", listIDs(p))
	}
}

func TestListCacheKeysAreDistinct(t *testing.T) {
	ctx := context.Background()
	svc, _, c := newSQLiteService(t)

	mustCreate(t, svc, CreateSnippetRequest{Title: "alpha", Description: "d", Code: "c"})
	mustCreate(t, svc, CreateSnippetRequest{Title: "beta", Description: "d", Code: "c"})

	a, err := svc.List(ctx, ListInput{Page: 1, Limit: 10, Search: "alpha"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	b, err := svc.List(ctx, ListInput{Page: 1, Limit: 10, Search: "beta"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if a.Snippets[0].Title != "alpha" || b.Snippets[0].Title != "beta" {
		t.Fatalf("search pages collided: %v %v", listIDs(a), listIDs(b))
	}
	if c.Len() != 2 {
		t.Fatalf("expected two cached pages, got %d", c.Len())
	}
}

func TestConcurrentUpdatesDoNotInterleave(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newSQLiteService(t)

	s := mustCreate(t, svc, CreateSnippetRequest{Title: "base", Description: "base", Code: "base"})

	reqA := UpdateSnippetRequest{Title: "A title", Description: "A description", Code: "A code"}
	reqB := UpdateSnippetRequest{Title: "B title", Description: "B description", Code: "B code"}

	var wg sync.WaitGroup
	for _, req := range []UpdateSnippetRequest{reqA, reqB} {
		wg.Add(1)
		go func(req UpdateSnippetRequest) {
			defer wg.Done()
			if _, err := svc.Update(ctx, s.ID, req); err != nil {
				t.Errorf("update: %v", err)
			}
		}(req)
	}
	wg.Wait()

	final, err := repo.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got := UpdateSnippetRequest{Title: final.Title, Description: final.Description, Code: final.Code}
	if got != reqA && got != reqB {
		t.Fatalf("final state is a mix of both writes: %+v", got)
	}
}

func TestSQLiteRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	_, repo, _ := newSQLiteService(t)

	if _, err := repo.GetByID(ctx, "nope12345"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.Update(ctx, &Snippet{ID: "nope12345", Title: "t", Description: "d", Code: "c"}); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.Delete(ctx, "nope12345"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSQLiteRepositoryDuplicateID(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSQLiteService(t)

	mustCreate(t, svc, CreateSnippetRequest{ID: "customID01", Title: "t", Description: "d", Code: "c"})
	_, err := svc.Create(ctx, CreateSnippetRequest{ID: "customID01", Title: "t", Description: "d", Code: "c"})
	assertKind(t, err, apperrors.KindConflict)
}
