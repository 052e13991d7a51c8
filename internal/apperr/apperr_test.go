package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	errMissing := New(NotFound, "missing")

	if got := KindOf(fmt.Errorf("load: %w", errMissing)); got != NotFound {
		t.Errorf("wrapped kind = %v, want NotFound", got)
	}
	if got := KindOf(errors.New("boom")); got != Internal {
		t.Errorf("plain error kind = %v, want Internal", got)
	}
	if !errors.Is(fmt.Errorf("x: %w", errMissing), errMissing) {
		t.Errorf("errors.Is should see through wrapping")
	}
}
