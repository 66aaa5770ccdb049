package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorImplementsErrorInterface(t *testing.T) {
	err := NotRunning("api")
	if err.Error() == "" {
		t.Fatal("expected non-empty error string")
	}
	if !strings.Contains(err.Error(), "Hint:") {
		t.Fatalf("expected error string to include hint, got %q", err.Error())
	}
}

func TestWithDetailsAndCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := RequestFailed("launch", "").WithCause(cause).WithDetails("extra", 42)

	if err.Cause != cause {
		t.Fatalf("expected cause to be set")
	}
	if err.Details["extra"] != 42 {
		t.Fatalf("expected detail 'extra'=42, got %v", err.Details["extra"])
	}
	if stderrors.Unwrap(err) != cause {
		t.Fatalf("expected Unwrap to return cause")
	}
}

func TestRequestFailedDefaultMessage(t *testing.T) {
	err := RequestFailed("launch", "")
	if err.Code != CodeRequestFailed {
		t.Fatalf("expected code %s, got %s", CodeRequestFailed, err.Code)
	}
	if err.Message != "request 'launch' failed" {
		t.Fatalf("unexpected default message: %q", err.Message)
	}

	withMsg := RequestFailed("launch", "invalid program path")
	if withMsg.Message != "invalid program path" {
		t.Fatalf("expected explicit message to be preserved, got %q", withMsg.Message)
	}
}

func TestSessionNotFoundHintListsAvailable(t *testing.T) {
	none := SessionNotFound("x", nil)
	if none.Hint != "No sessions are active. Use launch, attach, or launch_watch to create one." {
		t.Fatalf("unexpected empty hint: %q", none.Hint)
	}

	some := SessionNotFound("x", []string{"api", "worker"})
	want := "Active sessions: api, worker"
	if some.Hint != want {
		t.Fatalf("expected hint %q, got %q", want, some.Hint)
	}
}

func TestFromErrorPreservesChainedDebugError(t *testing.T) {
	original := NotRunning("api")
	wrapped := stderrors.Join(original)

	got := FromError(wrapped)
	if got != original {
		t.Fatalf("expected FromError to extract the chained *DebugError")
	}
}

func TestFromErrorWrapsPlainError(t *testing.T) {
	got := FromError(stderrors.New("some plain error"))
	if got.Code != "UNKNOWN_ERROR" {
		t.Fatalf("expected UNKNOWN_ERROR code, got %s", got.Code)
	}
	if got.Message != "some plain error" {
		t.Fatalf("expected message to carry through, got %q", got.Message)
	}
}

func TestCodesAreDistinctPerKind(t *testing.T) {
	errs := []*DebugError{
		TransportClosed(nil),
		NotRunning("s"),
		Reconnecting("s"),
		SessionNotFound("s", nil),
		DuplicateID("s"),
		SessionLimitReached(5),
		Configuration("bad", nil),
		Timeout("reattach", 30),
		NoThreads(),
	}
	seen := make(map[ErrorCode]bool)
	for _, e := range errs {
		if seen[e.Code] {
			t.Fatalf("duplicate error code %s across constructors", e.Code)
		}
		seen[e.Code] = true
	}
}
