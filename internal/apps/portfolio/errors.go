package portfolio

import (
	"errors"
	"fmt"
)

// Error kinds. Every error the service returns to a caller matches exactly
// one of these with errors.Is, or is an internal failure.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrBadRequest      = errors.New("bad request")
	ErrPaymentRequired = errors.New("payment required")
)

// Error pairs a kind with the message shown to the caller.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func unauthorized() error {
	return &Error{Kind: ErrUnauthorized, Message: "Unauthorized"}
}

func notFound(what string) error {
	return &Error{Kind: ErrNotFound, Message: what + " not found"}
}

func badRequest(format string, args ...any) error {
	return &Error{Kind: ErrBadRequest, Message: fmt.Sprintf(format, args...)}
}

func paymentRequired() error {
	return &Error{Kind: ErrPaymentRequired, Message: "This template requires a Pro subscription"}
}
