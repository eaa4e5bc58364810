// Package apperr defines the error categories the platform surfaces.
// Callers branch on the category, never on message text.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindInvalid marks validation failures the caller can fix by
	// correcting input (e.g. an inconsistent rubric document).
	KindInvalid Kind = iota
	// KindNotFound marks an absent resource.
	KindNotFound
	// KindForbidden marks an ownership or permission mismatch on a
	// resource that does exist. Not-found is always checked first so a
	// forbidden response confirms existence only to authorized callers.
	KindForbidden
	// KindRejected marks an expected business-rule refusal (submission
	// limit reached, assignment unpublished, past due). These are common
	// outcomes, not failures, and each carries its own reason string.
	KindRejected
	// KindConflict marks a state conflict (rubric in use, duplicate
	// attempt number).
	KindConflict
	// KindInternal marks invariant violations and infrastructure errors.
	KindInternal
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match any error of the same Kind, so callers can
// compare against the canonical sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalid   = &Error{Kind: KindInvalid, Msg: "invalid"}
	ErrNotFound  = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrForbidden = &Error{Kind: KindForbidden, Msg: "forbidden"}
	ErrRejected  = &Error{Kind: KindRejected, Msg: "rejected"}
	ErrConflict  = &Error{Kind: KindConflict, Msg: "conflict"}
	ErrInternal  = &Error{Kind: KindInternal, Msg: "internal"}
)

func Invalid(format string, args ...any) error {
	return &Error{Kind: KindInvalid, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

func Rejected(format string, args ...any) error {
	return &Error{Kind: KindRejected, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf reports the category of err, or KindInternal for errors that
// did not originate here.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
