// Package apperr defines the error taxonomy shared by the ThreadHer tool
// functions. Every component boundary returns an *Error (or wraps one) so the
// transport layer can pick a status code by kind instead of by message.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	// KindUnexpected is anything not classified below. Surfaced as 500.
	KindUnexpected Kind = iota
	// KindValidation means a required field was missing or malformed. Surfaced as 400.
	KindValidation
	// KindNotFound means a referenced stored artifact is absent. Surfaced as 404.
	KindNotFound
	// KindUpstream means a collaborator returned a non-success result.
	// Agent-routed calls carry it in the body with a 200 transport status.
	KindUpstream
)

// String returns the kind name echoed to callers on unexpected failures.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFoundError"
	case KindUpstream:
		return "UpstreamError"
	default:
		return "UnexpectedError"
	}
}

// Error is a classified error. Op names the operation that failed
// (e.g. "carbon.handle"); it is for logs only and never part of Error().
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a KindValidation error.
func Validation(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

// NotFound returns a KindNotFound error wrapping cause.
func NotFound(op, msg string, cause error) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: msg, Err: cause}
}

// Upstream returns a KindUpstream error. msg may be empty, in which case the
// cause's message is used verbatim.
func Upstream(op, msg string, cause error) *Error {
	return &Error{Kind: KindUpstream, Op: op, Msg: msg, Err: cause}
}

// Unexpected wraps cause as KindUnexpected.
func Unexpected(op string, cause error) *Error {
	return &Error{Kind: KindUnexpected, Op: op, Err: cause}
}

// KindOf reports the kind of err. Unclassified errors are KindUnexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// StatusCode maps err to the HTTP-style status used by direct entrypoints.
// Upstream failures map to 200 because they are reported in the body.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
