package playout

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsWrap(t *testing.T) {
	sentinels := []error{
		ErrFileNotFound,
		ErrOutOfRange,
		ErrInvalidOperation,
		ErrOperationFailed,
		ErrNotSupported,
	}
	for i, s := range sentinels {
		wrapped := fmt.Errorf("screen %d: %w", i, s)
		if !errors.Is(wrapped, s) {
			t.Errorf("errors.Is(%v, %v) = false", wrapped, s)
		}
		for j, other := range sentinels {
			if i != j && errors.Is(wrapped, other) {
				t.Errorf("%v unexpectedly matches %v", wrapped, other)
			}
		}
	}
}
