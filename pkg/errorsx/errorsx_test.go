package errorsx

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapAndKind(t *testing.T) {
	err := Wrap(assertErr{}, KindUnknownTool)
	if KindOf(err) != KindUnknownTool {
		t.Fatalf("expected kind %s, got %s", KindUnknownTool, KindOf(err))
	}
	if !HasKind(err, KindUnknownTool) {
		t.Fatalf("expected HasKind true")
	}
}

func TestWrapPreservesExistingKind(t *testing.T) {
	first := Wrap(assertErr{}, KindSchemaValidation)
	second := Wrap(first, KindRouting)
	if KindOf(second) != KindSchemaValidation {
		t.Fatalf("expected kind preserved, got %s", KindOf(second))
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", E(KindStepLimitExceeded, "gave up after %d steps", 5))
	if KindOf(err) != KindStepLimitExceeded {
		t.Fatalf("expected kind through %%w chain, got %s", KindOf(err))
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatalf("expected unknown kind for plain error")
	}
	if KindOf(nil) != KindUnknown {
		t.Fatalf("expected unknown kind for nil")
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
