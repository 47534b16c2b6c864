package engine

import (
	"errors"
	"fmt"

	"github.com/soleshop/cart-sync/internal/gateway"
)

// ErrSessionClosed is returned when a mutation is attempted after the cart
// store has been torn down.
var ErrSessionClosed = errors.New("cart session closed")

// ValidationError rejects malformed input before any local or remote
// effect. It is reported synchronously to the caller.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

func validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a local validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// MutationError is a remote failure that triggered a rollback. Its text is
// the server-provided message when one was available, otherwise the
// operation's fallback ("Failed to add", "Update failed", ...), so it can
// be shown to the shopper directly.
type MutationError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *MutationError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying gateway error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// remoteFailure builds the user-facing error for a failed remote call,
// preferring the gateway's message over the operation fallback.
func remoteFailure(fallback string, err error) error {
	var re *gateway.RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return &MutationError{Message: re.Message, Err: err}
	}
	return &MutationError{Message: fallback, Err: err}
}
