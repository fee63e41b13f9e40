// Package vault reads secrets from HashiCorp Vault's KV engine. The gateway
// uses it to resolve signing keys and the Redis password at startup.
package vault

import (
	"errors"
	"fmt"
)

// Common errors for Vault operations.
var (
	// ErrSecretNotFound indicates the secret or key was not found.
	ErrSecretNotFound = errors.New("vault: secret not found")

	// ErrInvalidPath indicates an invalid secret path.
	ErrInvalidPath = errors.New("vault: invalid secret path")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("vault: invalid configuration")
)

// VaultError represents a Vault-specific error with additional context.
type VaultError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("vault %s on path %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("vault %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *VaultError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for VaultError.
func (e *VaultError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewVaultError creates a new VaultError.
func NewVaultError(op, path string, err error) *VaultError {
	return &VaultError{Op: op, Path: path, Err: err}
}
