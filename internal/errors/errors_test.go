package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestNewRegisteredCode(t *testing.T) {
	err := New("path-not-found")

	if err.Code != "path-not-found" {
		t.Errorf("expected code path-not-found, got %q", err.Code)
	}
	if err.Category != CategoryConfig {
		t.Errorf("expected config category, got %q", err.Category)
	}
	if err.Severity != SeverityFatal {
		t.Errorf("expected fatal severity, got %q", err.Severity)
	}
	if !err.IsFatal() {
		t.Error("path-not-found should be fatal")
	}
	if err.DocURL == "" {
		t.Error("registered code should carry a doc URL")
	}
}

func TestNewUnknownCode(t *testing.T) {
	err := New("no-such-code")

	if err.Code != "no-such-code" {
		t.Errorf("unknown code should be preserved, got %q", err.Code)
	}
	if err.Message != "unknown error" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestErrorStringIncludesContext(t *testing.T) {
	err := New("write-rejection").
		WithContext("path", "user.name").
		WithContext("ref", "user.name#0")

	msg := err.Error()
	if !strings.HasPrefix(msg, "write-rejection: ") {
		t.Errorf("message should start with code, got %q", msg)
	}
	if !strings.Contains(msg, "path=user.name") {
		t.Errorf("message should include context, got %q", msg)
	}
	// Context keys render in sorted order.
	if strings.Index(msg, "path=") > strings.Index(msg, "ref=") {
		t.Errorf("context keys should be sorted, got %q", msg)
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := New("hook-failed").Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if CodeOf(err) != "hook-failed" {
		t.Errorf("CodeOf = %q, want hook-failed", CodeOf(err))
	}
}

func TestCodeOfUnwrapsChains(t *testing.T) {
	inner := New("list-instance-missing")
	outer := &wrapper{inner}

	if CodeOf(outer) != "list-instance-missing" {
		t.Errorf("CodeOf should unwrap, got %q", CodeOf(outer))
	}
	if CodeOf(stderrors.New("plain")) != "" {
		t.Error("plain errors have no code")
	}
}

type wrapper struct{ err error }

func (w *wrapper) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrapper) Unwrap() error { return w.err }

func TestFormatContainsDocURL(t *testing.T) {
	out := New("update-reentrancy").WithContext("updater", 3).Format()

	if !strings.Contains(out, "update-reentrancy") {
		t.Errorf("format should include the code:\n%s", out)
	}
	if !strings.Contains(out, "structive.dev/docs/errors/update-reentrancy") {
		t.Errorf("format should include the doc link:\n%s", out)
	}
	if !strings.Contains(out, "updater: 3") {
		t.Errorf("format should include context values:\n%s", out)
	}
}

func TestRegisteredCodesAreConsistent(t *testing.T) {
	for _, code := range Codes() {
		if !Registered(code) {
			t.Errorf("code %q listed but not registered", code)
		}
		err := New(code)
		if err.Message == "" || err.Message == "unknown error" {
			t.Errorf("code %q has no message", code)
		}
	}
}
