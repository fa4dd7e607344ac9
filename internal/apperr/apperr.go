// Package apperr defines the error kinds the HTTP layer knows how to report.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for status mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindBadRequest
	KindMissingToken
	KindUnauthorized
	KindCapacity
	KindConflict
	KindNotFound
	KindUpstream
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBadRequest:
		return "bad_request"
	case KindMissingToken:
		return "missing_token"
	case KindUnauthorized:
		return "unauthorized"
	case KindCapacity:
		return "capacity"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	case KindParse:
		return "parse"
	}
	return "internal"
}

// Error carries a client-safe Message. Err holds the internal cause and is never sent to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(msg string) error   { return &Error{Kind: KindValidation, Message: msg} }
func BadRequest(msg string) error   { return &Error{Kind: KindBadRequest, Message: msg} }
func MissingToken(msg string) error { return &Error{Kind: KindMissingToken, Message: msg} }
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Message: msg} }
func Capacity(msg string) error     { return &Error{Kind: KindCapacity, Message: msg} }
func Conflict(msg string) error     { return &Error{Kind: KindConflict, Message: msg} }
func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Message: msg} }

// Upstream wraps a failure of an external service. msg must be generic.
func Upstream(msg string, cause error) error {
	return &Error{Kind: KindUpstream, Message: msg, Err: cause}
}

// Parse wraps a failure to interpret an external response. msg must be generic.
func Parse(msg string, cause error) error {
	return &Error{Kind: KindParse, Message: msg, Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
