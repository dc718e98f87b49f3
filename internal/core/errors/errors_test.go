package errors

import (
	"errors"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeParseFailure, "syntax error in module")
		if err.Error() != "[PARSE_FAILURE] syntax error in module" {
			t.Errorf("expected [PARSE_FAILURE] syntax error in module, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("pip exited with status 1")
		err := Wrap(original, CodeAcquireFailed, "package install failed")
		expected := "[ACQUIRE_FAILED] package install failed: pip exited with status 1"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeConfigError, "workers must be >= 0")
		if !IsCode(err, CodeConfigError) {
			t.Error("expected IsCode to return true for CodeConfigError")
		}
		if IsCode(err, CodeSourceUnavailable) {
			t.Error("expected IsCode to return false for CodeSourceUnavailable")
		}
	})

	t.Run("IsCodeWithWrapped", func(t *testing.T) {
		original := errors.New("sqlite locked")
		err := Wrap(original, CodeStorageError, "history write failed")
		if !IsCode(err, CodeStorageError) {
			t.Error("expected IsCode to return true for wrapped CodeStorageError")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := New(CodeParseFailure, "syntax error")
		err = AddContext(err, CtxModule, "langchain.agents")
		var de *DomainError
		if !errors.As(err, &de) {
			t.Fatal("expected DomainError after AddContext")
		}
		if de.Context[CtxModule] != "langchain.agents" {
			t.Errorf("expected context module langchain.agents, got %v", de.Context[CtxModule])
		}
	})

	t.Run("AddContextToPlainError", func(t *testing.T) {
		err := AddContext(errors.New("stat failed"), CtxPath, "/tmp/missing")
		if !IsCode(err, CodeInternal) {
			t.Error("expected plain error to be wrapped as CodeInternal")
		}
	})

	t.Run("Reason", func(t *testing.T) {
		err := New(CodeParseFailure, "syntax error at line 3, column 1")
		if got := Reason(err); got != "syntax error at line 3, column 1" {
			t.Errorf("expected bare message, got %q", got)
		}
		plain := errors.New("read failed")
		if got := Reason(plain); got != "read failed" {
			t.Errorf("expected plain error text, got %q", got)
		}
	})
}
