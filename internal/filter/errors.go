package filter

import (
	"errors"
	"net/http"

	"github.com/vyrodovalexey/authgw/internal/auth/jwt"
	"github.com/vyrodovalexey/authgw/internal/refresh"
	"github.com/vyrodovalexey/authgw/internal/revocation"
)

// ErrAuthorizationRejected indicates the caller lacks the privileged role.
var ErrAuthorizationRejected = errors.New("authorization rejected")

// statusForError maps an error crossing a stage boundary to a status code.
func statusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case jwt.IsMalformed(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthorizationRejected):
		return http.StatusForbidden
	case errors.Is(err, revocation.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, refresh.ErrReissueFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
