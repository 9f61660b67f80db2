package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("spin: %w", NotFound("invalid code"))

	if got := KindOf(err); got != KindNotFound {
		t.Errorf("KindOf = %v, want %v", got, KindNotFound)
	}
	if got := Message(err, "fallback"); got != "invalid code" {
		t.Errorf("Message = %q, want %q", got, "invalid code")
	}
}

func TestKindOfPlainError(t *testing.T) {
	err := errors.New("boom")

	if got := KindOf(err); got != KindUnknown {
		t.Errorf("KindOf = %v, want %v", got, KindUnknown)
	}
	if got := Message(err, "fallback"); got != "fallback" {
		t.Errorf("Message = %q, want %q", got, "fallback")
	}
}

func TestStorageHidesCause(t *testing.T) {
	cause := errors.New("open /var/lib/foodwheel/codes.json: permission denied")
	err := Storage("read codes", cause)

	if !Is(err, KindStorage) {
		t.Fatalf("expected storage kind, got %v", KindOf(err))
	}
	if got := Message(err, ""); got != "storage unavailable" {
		t.Errorf("Message = %q, want %q", got, "storage unavailable")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}
