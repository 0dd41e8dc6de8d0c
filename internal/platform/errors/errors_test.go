package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	base := New(CodeGuestDuplicate, "guest already registered")
	other := New(CodeGuestDuplicate, "different message, same code")

	if !stderrors.Is(other, base) {
		t.Fatal("expected errors with the same code to match")
	}

	mismatch := New(CodeGuestNotFound, "guest not found")
	if stderrors.Is(mismatch, base) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeUnknown, "persist roster", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable")
	}
}

func TestIsMatchesThroughWrapping(t *testing.T) {
	base := New(CodeRosterClosed, "roster is closed")
	wrapped := fmt.Errorf("join: %w", base)

	if !stderrors.Is(wrapped, base) {
		t.Fatal("expected code match through fmt wrapping")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(CodeNotFound, "missing")); got != CodeNotFound {
		t.Fatalf("code = %q, want %q", got, CodeNotFound)
	}
	if got := CodeOf(fmt.Errorf("outer: %w", New(CodeGuestLimitReached, "cap"))); got != CodeGuestLimitReached {
		t.Fatalf("code = %q, want %q", got, CodeGuestLimitReached)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %q, want %q", got, CodeUnknown)
	}
}
