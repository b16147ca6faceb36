package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{"validation", Validationf("emi_frequency is required for %s", "EMI"), ErrValidation, "emi_frequency is required for EMI"},
		{"not found", NotFoundf("proposal %s", "abc"), ErrNotFound, "proposal abc"},
		{"conflict", Conflictf("chain already %s", "ACCEPTED"), ErrConflict, "chain already ACCEPTED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Fatalf("errors.Is(%v, %v) = false", tt.err, tt.kind)
			}
			wrapped := fmt.Errorf("activate: %w", tt.err)
			if !errors.Is(wrapped, tt.kind) {
				t.Fatalf("kind lost through wrapping")
			}
			if got := Message(wrapped); got != tt.msg {
				t.Fatalf("Message = %q, want %q", got, tt.msg)
			}
		})
	}
}

func TestMessage_PlainError(t *testing.T) {
	if got := Message(errors.New("boom")); got != "boom" {
		t.Fatalf("Message = %q", got)
	}
}
