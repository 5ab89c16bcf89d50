// Package apperr defines the small typed error taxonomy shared across
// internal packages: NotFound, Validation, External, Internal. Internal
// packages never import net/http; the thin server layer is the only place
// these map onto status codes.
package apperr

import "fmt"

// Kind classifies an error for the server layer's status mapping.
type Kind int

const (
	// KindInternal is an unexpected failure: log it, roll back, 500.
	KindInternal Kind = iota
	// KindNotFound means the requested entity does not exist: 404.
	KindNotFound
	// KindValidation means the caller supplied invalid input: 422.
	KindValidation
	// KindExternal means a third-party dependency failed; callers should
	// treat it as best-effort (log and continue) rather than fatal.
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindExternal:
		return "external"
	default:
		return "internal"
	}
}

// Error wraps an underlying error with a Kind for routing/handling.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound builds a KindNotFound error.
func NotFound(msg string, err error) *Error {
	return &Error{Kind: KindNotFound, Msg: msg, Err: err}
}

// Validation builds a KindValidation error.
func Validation(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Err: err}
}

// External builds a KindExternal error.
func External(msg string, err error) *Error {
	return &Error{Kind: KindExternal, Msg: msg, Err: err}
}

// Internal builds a KindInternal error.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err, defaulting to KindInternal when err
// isn't an *Error.
func KindOf(err error) Kind {
	var e *Error
	if as, ok := err.(*Error); ok {
		e = as
		return e.Kind
	}
	return KindInternal
}
