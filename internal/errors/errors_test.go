package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestAppErrorIs(t *testing.T) {
	cause := stderrors.New("permission denied")
	err := fmt.Errorf("serving: %w", New(ErrContentRead, "read index.html", cause))

	if !stderrors.Is(err, ErrRead) {
		t.Error("Expected wrapped error to match ErrRead")
	}
	if stderrors.Is(err, ErrMissing) {
		t.Error("Different codes should not match")
	}
	if !stderrors.Is(err, cause) {
		t.Error("Expected cause to be reachable through Unwrap")
	}
}

func TestAppErrorMessage(t *testing.T) {
	if got := New(ErrSyncFailed, "list", nil).Error(); got != "list" {
		t.Errorf("Unexpected message %q", got)
	}
	if got := New(ErrSyncFailed, "list", stderrors.New("timeout")).Error(); got != "list: timeout" {
		t.Errorf("Unexpected message %q", got)
	}
	if ErrorCode(99).String() != "unknown" {
		t.Error("Unknown codes should print as unknown")
	}
}
