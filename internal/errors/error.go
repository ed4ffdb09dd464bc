package errors

import (
	"fmt"
	"sort"
	"strings"
)

// Category groups errors by the subsystem that raised them.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryState    Category = "state"
	CategoryUpdate   Category = "update"
	CategoryConsumer Category = "consumer"
	CategoryRender   Category = "render"
)

// Severity indicates how the caller should treat the error.
// Fatal errors are programming-time faults: they abort the current
// render pass and are never retried.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityFatal   Severity = "fatal"
)

// Error is a structured error with a stable code for caller branching.
// The boundary payload shape is { code, message, context, docsUrl,
// severity }.
type Error struct {
	// Code is a stable string identifier (e.g. "path-not-found").
	Code string

	// Category is the subsystem that raised the error.
	Category Category

	// Severity is the handling class of the error.
	Severity Severity

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Context carries structured values (path, ref key, positions).
	Context map[string]any

	// DocURL is a link to documentation about this error code.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// IsFatal reports whether the error aborts the current pass.
func (e *Error) IsFatal() bool {
	return e.Severity == SeverityFatal
}

// WithContext adds one structured context value to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
// Unknown codes still produce a usable error so callers never lose the
// original code string.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:     code,
			Severity: SeverityError,
			Message:  "unknown error",
		}
	}
	return &Error{
		Code:     code,
		Category: template.Category,
		Severity: template.Severity,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates an Error with a formatted message and no registered code.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error under a registered code.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	return New(code).Wrap(err)
}

// CodeOf returns the stable code of err if it is a structured Error,
// or "" otherwise. It unwraps as needed.
func CodeOf(err error) string {
	for err != nil {
		if se, ok := err.(*Error); ok {
			return se.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
