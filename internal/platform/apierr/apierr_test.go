package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/yungbote/aletheia-backend/internal/platform/errs"
)

func TestAsFindsWrappedError(t *testing.T) {
	base := NotFound("quest_not_found", "quest not found")
	wrapped := fmt.Errorf("complete: %w", base)

	got, ok := As(wrapped)
	if !ok {
		t.Fatalf("expected apierr in chain")
	}
	if got.Status != http.StatusNotFound || got.Code != "quest_not_found" {
		t.Fatalf("unexpected: status=%d code=%s", got.Status, got.Code)
	}
	if !errors.Is(wrapped, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound sentinel in chain")
	}
	if !HasCode(wrapped, "quest_not_found") {
		t.Fatalf("HasCode mismatch")
	}
}

func TestErrorMessageFallbacks(t *testing.T) {
	if got := (&Error{Code: "x"}).Error(); got != "x" {
		t.Fatalf("code fallback: %q", got)
	}
	if got := (&Error{Status: 418}).Error(); got != "api error (418)" {
		t.Fatalf("status fallback: %q", got)
	}
	if _, ok := As(errors.New("plain")); ok {
		t.Fatalf("plain error should not match")
	}
}
