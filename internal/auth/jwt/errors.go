package jwt

import (
	"errors"
	"fmt"
)

// Sentinel errors for credential operations.
var (
	// ErrMalformedCredential indicates the token cannot be parsed at all.
	ErrMalformedCredential = errors.New("credential is malformed")

	// ErrInvalidCredential indicates a token that parses but fails verification.
	ErrInvalidCredential = errors.New("credential is invalid")

	// ErrClaimMissing indicates that a required claim is absent or not a string.
	ErrClaimMissing = errors.New("required claim is missing")

	// ErrInvalidKey indicates that the verification key is unusable.
	ErrInvalidKey = errors.New("verification key is invalid")

	// ErrKeyNotFound indicates that no key matches the token's key id.
	ErrKeyNotFound = errors.New("verification key not found")

	// ErrJWKSFetchFailed indicates that fetching the JWKS document failed.
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")
)

// MalformedCredentialError is returned when a token is structurally broken:
// wrong segment count, bad encoding or undecodable JSON.
type MalformedCredentialError struct {
	Cause error
}

// Error implements the error interface.
func (e *MalformedCredentialError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed credential: %v", e.Cause)
	}
	return "malformed credential"
}

// Unwrap returns the underlying error.
func (e *MalformedCredentialError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *MalformedCredentialError) Is(target error) bool {
	if target == ErrMalformedCredential {
		return true
	}
	_, ok := target.(*MalformedCredentialError)
	return ok
}

// ClaimError reports a missing or mistyped claim.
type ClaimError struct {
	Claim string
}

// Error implements the error interface.
func (e *ClaimError) Error() string {
	return fmt.Sprintf("claim %q is missing or not a string", e.Claim)
}

// Is checks if the error matches the target.
func (e *ClaimError) Is(target error) bool {
	if target == ErrClaimMissing {
		return true
	}
	_, ok := target.(*ClaimError)
	return ok
}

// KeyError represents a key-related error.
type KeyError struct {
	KeyID   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *KeyError) Error() string {
	msg := "jwt key error"
	if e.KeyID != "" {
		msg += fmt.Sprintf(" (kid=%s)", e.KeyID)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *KeyError) Unwrap() error {
	return e.Cause
}

// NewKeyError creates a new KeyError.
func NewKeyError(keyID, message string, cause error) *KeyError {
	return &KeyError{KeyID: keyID, Message: message, Cause: cause}
}

// IsMalformed reports whether err marks a structurally broken token.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedCredential)
}
