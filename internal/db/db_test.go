package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestDriver(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"postgres://u:p@localhost:5432/cobit", "postgres"},
		{"postgresql://localhost/cobit", "postgres"},
		{"sqlite:/tmp/cobit.db", "sqlite"},
		{"file:cobit.db?cache=shared", "sqlite"},
		{"mysql://localhost/cobit", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Driver(tc.url); got != tc.want {
			t.Errorf("Driver(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestDBOperation(t *testing.T) {
	if got := dbOperation("  select id from snippets"); got != "SELECT" {
		t.Fatalf("unexpected op: %s", got)
	}
	if got := dbOperation(""); got != "unknown" {
		t.Fatalf("unexpected op: %s", got)
	}
}

func TestOpenSQLiteAppliesSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cobit.db")

	s, err := OpenSQLite(ctx, "sqlite:"+path, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	var n int
	err = s.QueryRow(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'snippets')`).Scan(&n)
	if err != nil {
		t.Fatalf("query schema: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 tables, got %d", n)
	}

	// reopening runs the migrations again
	s2, err := OpenSQLite(ctx, "sqlite:"+path, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = s2.Close()

	_, err = s.Exec(ctx, `INSERT INTO snippets (id, title, description, code, visibility, created_at, updated_at)
		VALUES ('abcdefgh', 't', 'd', 'c', 'hidden', 1, 1)`)
	if err == nil {
		t.Fatal("expected visibility check constraint to reject the row")
	}
}

func TestOpenSQLiteRejectsEmptyPath(t *testing.T) {
	if _, err := OpenSQLite(context.Background(), "sqlite:", 0); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSQLiteUnicodeLower(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, "sqlite:"+filepath.Join(t.TempDir(), "cobit.db"), 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	var got string
	if err := s.QueryRow(ctx, `SELECT `+UnicodeLower+`(?)`, "Écrire ÜBER Straße").Scan(&got); err != nil {
		t.Fatalf("query: %v", err)
	}
	if got != "écrire über straße" {
		t.Fatalf("unexpected lower: %q", got)
	}

	var isNull bool
	if err := s.QueryRow(ctx, `SELECT `+UnicodeLower+`(NULL) IS NULL`).Scan(&isNull); err != nil {
		t.Fatalf("query null: %v", err)
	}
	if !isNull {
		t.Fatal("NULL must stay NULL")
	}
}
