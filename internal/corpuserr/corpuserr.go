// Package corpuserr defines the error-kind taxonomy used across the
// query core (spec §7). Callers use errors.As to recover a *Error and
// inspect its Kind; errors.Is works against the sentinel Kind values
// via Error.Is.
package corpuserr

import "fmt"

// Kind classifies a failure without requiring a distinct Go type per
// failure site.
type Kind int

const (
	Unknown Kind = iota
	ParseError
	ValidationError
	SchemaError
	StorageError
	DocStoreError
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case ValidationError:
		return "ValidationError"
	case SchemaError:
		return "SchemaError"
	case StorageError:
		return "StorageError"
	case DocStoreError:
		return "DocStoreError"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error is a typed-kind error carrying an optional offending fragment,
// preserved for both the CLI's single-line report and programmatic
// consumers per spec §7.
type Error struct {
	Kind     Kind
	Message  string
	Fragment string // the offending query fragment, if any
	Offset   int    // byte offset into the query text, if applicable
	Err      error  // wrapped cause
}

func (e *Error) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("%s: %s (at %q, offset %d)", e.Kind, e.Message, e.Fragment, e.Offset)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, corpuserr.New(kind, "")) match by Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds a bare Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// WithFragment attaches the offending query fragment and offset.
func (e *Error) WithFragment(fragment string, offset int) *Error {
	e.Fragment = fragment
	e.Offset = offset
	return e
}

// Sentinel instances for errors.Is comparisons by kind.
var (
	ErrParse      = New(ParseError, "")
	ErrValidation = New(ValidationError, "")
	ErrSchema     = New(SchemaError, "")
	ErrStorage    = New(StorageError, "")
	ErrDocStore   = New(DocStoreError, "")
	ErrCancelled  = New(Cancelled, "")
)
