// Package errors provides structured, stable-coded errors for the
// Structive core.
//
// Every error carries a stable string code (e.g. "path-not-found"), a
// category, a severity, structured context values, and a documentation
// URL. Callers branch on codes, never on message text.
//
// # Severity
//
// Fatal errors are programming-time faults: a missing index node for a
// declared dependency, a missing render instance for a tracked list
// index. They abort the current render pass and are never retried.
// Ordinary errors (write rejection, update reentrancy) surface to the
// caller that triggered them.
//
// # Usage
//
//	err := errors.New("path-not-found").
//	    WithContext("path", "items.*.name")
//	if errors.CodeOf(err) == "path-not-found" { ... }
package errors
