package refresh

import (
	"errors"
	"fmt"
)

// ErrReissueFailed indicates the auth service did not issue a new credential.
var ErrReissueFailed = errors.New("credential reissue failed")

// ReissueFailedError describes a failed reissue call. StatusCode is zero when
// no response was received.
type ReissueFailedError struct {
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ReissueFailedError) Error() string {
	msg := "credential reissue failed: " + e.Message
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ReissueFailedError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ReissueFailedError) Is(target error) bool {
	if target == ErrReissueFailed {
		return true
	}
	_, ok := target.(*ReissueFailedError)
	return ok
}

func reissueFailed(status int, message string, cause error) *ReissueFailedError {
	return &ReissueFailedError{StatusCode: status, Message: message, Cause: cause}
}
