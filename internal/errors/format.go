package errors

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Format returns a multi-line rendering of the error for terminal
// display: code, severity, message, context, detail, doc link.
func (e *Error) Format() string {
	var b strings.Builder

	b.WriteString(strings.ToUpper(string(e.Severity)))
	if e.Code != "" {
		b.WriteString(" ")
		b.WriteString(e.Code)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	b.WriteString("\n")

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %v\n", k, e.Context[k])
		}
	}

	if e.Detail != "" {
		b.WriteString("\n")
		b.WriteString(e.Detail)
		b.WriteString("\n")
	}

	if e.Wrapped != nil {
		fmt.Fprintf(&b, "\ncaused by: %v\n", e.Wrapped)
	}

	if e.DocURL != "" {
		fmt.Fprintf(&b, "\nsee %s\n", e.DocURL)
	}

	return b.String()
}

// LogValue implements slog.LogValuer so errors log as structured
// groups instead of flat strings.
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", e.Code),
		slog.String("severity", string(e.Severity)),
		slog.String("message", e.Message),
	}
	for k, v := range e.Context {
		attrs = append(attrs, slog.Any("ctx."+k, v))
	}
	if e.Wrapped != nil {
		attrs = append(attrs, slog.String("cause", e.Wrapped.Error()))
	}
	return slog.GroupValue(attrs...)
}
