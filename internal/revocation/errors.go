package revocation

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable indicates the revocation store could not be reached
// or answered with an error.
var ErrStoreUnavailable = errors.New("revocation store unavailable")

// StoreUnavailableError carries the failed operation and its cause.
type StoreUnavailableError struct {
	Op    string
	Cause error
}

// Error implements the error interface.
func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("revocation store %s failed: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying error.
func (e *StoreUnavailableError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *StoreUnavailableError) Is(target error) bool {
	if target == ErrStoreUnavailable {
		return true
	}
	_, ok := target.(*StoreUnavailableError)
	return ok
}

func unavailable(op string, cause error) error {
	return &StoreUnavailableError{Op: op, Cause: cause}
}
