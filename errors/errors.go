package errors

import (
	"fmt"
	"strings"
)

// Kind categorizes the error.
type Kind string

const (
	KindInvalidArgument Kind = "invalid_argument" // bad caller input, detected before any native call
	KindFileNotFound    Kind = "file_not_found"
	KindFormat          Kind = "format_error"  // the native library rejected the file contents
	KindUnsupported     Kind = "unsupported"   // feature or type code outside the supported set
	KindIO              Kind = "io_error"      // read/write/close failure reported by the native library
	KindOutOfMemory     Kind = "out_of_memory" // native allocation failure
	KindState           Kind = "state_error"   // handle misuse: closed, wrong mode
	KindInternal        Kind = "internal"      // trap, unknown status code, or binding bug
)

// Error is the structured error type used throughout the binding.
type Error struct {
	Cause  error
	Op     string // native function or binding operation, e.g. "IcsOpen", "WriteData"
	Detail string
	Kind   Kind
	Code   Code // native status code; CodeOk when the error originated in Go
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(e.Op)
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Code != CodeOk {
		fmt.Fprintf(&b, " (ics status %d)", int32(e.Code))
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Two *Errors match when their
// Kinds are equal; if the target also names an Op, the Ops must match too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Op == "" || e.Op == t.Op
}

// New constructs an Error with a formatted detail message.
func New(op string, kind Kind, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{Op: op, Kind: kind, Detail: detail}
}

// Wrap constructs an Error around a cause.
func Wrap(op string, kind Kind, cause error, detail string) *Error {
	return &Error{Op: op, Kind: kind, Cause: cause, Detail: detail}
}

// InvalidArgument reports bad caller input detected in the binding, before
// any native call is made.
func InvalidArgument(op, detail string, args ...any) *Error {
	return New(op, KindInvalidArgument, detail, args...)
}

// State reports handle misuse: an operation on a closed handle or a write on
// a read-only handle.
func State(op, detail string, args ...any) *Error {
	return New(op, KindState, detail, args...)
}

// Unsupported reports a feature or type code outside the supported set.
func Unsupported(op, detail string, args ...any) *Error {
	return New(op, KindUnsupported, detail, args...)
}

// Internal reports a condition that indicates a bug in the binding or the
// native library, such as a wasm trap.
func Internal(op, detail string, args ...any) *Error {
	return New(op, KindInternal, detail, args...)
}

// FromCode translates a native status code into an error. It returns nil for
// CodeOk. text is the diagnostic string from IcsGetErrorText and may be
// empty; it is never used for control flow.
func FromCode(op string, code Code, text string) error {
	if code == CodeOk {
		return nil
	}
	return &Error{Op: op, Kind: KindOf(code), Detail: text, Code: code}
}

// IsKind reports whether err or any error in its chain is an *Error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
