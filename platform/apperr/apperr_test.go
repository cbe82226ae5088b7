package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := errors.New("connection reset by peer")
	err := fmt.Errorf("merge window: %w", Transient("stage load", base).WithOp("LoadBatch"))

	if !Is(err, KindTransient) {
		t.Fatalf("expected transient kind, got %s", GetKind(err))
	}
	if !errors.Is(err, base) {
		t.Fatal("expected underlying error to be reachable")
	}
	if got := err.Error(); got != "merge window: LoadBatch: stage load: connection reset by peer" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestGetKindUnknown(t *testing.T) {
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatal("expected unknown kind for plain errors")
	}
	if GetKind(nil) != KindUnknown {
		t.Fatal("expected unknown kind for nil")
	}
}
