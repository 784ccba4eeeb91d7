package apperrors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), KindInternal},
		{"direct", New(KindNotFound, "missing"), KindNotFound},
		{"wrapped", fmt.Errorf("load: %w", New(KindInvalidInput, "bad")), KindInvalidInput},
		{"empty kind", &Error{Message: "x"}, KindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("KindOf() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestErrorMessageFallbacks(t *testing.T) {
	cause := errors.New("db down")
	err := Wrap(KindInternal, "", cause)
	if err.Error() != "db down" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if New(KindConflict, "").Error() != "conflict" {
		t.Fatal("expected kind as message fallback")
	}
}

func TestRateLimit(t *testing.T) {
	err := RateLimit("slow down", 3*time.Second)
	if !IsKind(err, KindRateLimited) {
		t.Fatalf("unexpected kind: %s", err.Kind)
	}
	if err.RetryAfter != 3*time.Second {
		t.Fatalf("unexpected retry after: %s", err.RetryAfter)
	}
}
