package apierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/wisekey/langcenter/internal/response"
)

func TestIsMatchesKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("load course: %w", NotFound("course", 7))

	if !errors.Is(err, ErrNotFound) {
		t.Fatal("expected errors.Is(err, ErrNotFound)")
	}
	if errors.Is(err, ErrValidation) {
		t.Fatal("not-found must not match validation")
	}
	if got := KindOf(err); got != ErrNotFound {
		t.Errorf("KindOf = %v", got)
	}
	if got := Message(err); got != "course 7 not found" {
		t.Errorf("Message = %q", got)
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &Error{Kind: ErrNetwork, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("kind should match")
	}
	if err.Error() != "network error: dial tcp: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestNilKindDefaultsToServer(t *testing.T) {
	err := &Error{}
	if !errors.Is(err, ErrServer) {
		t.Error("zero Error should classify as server error")
	}
}

func TestCodeAndMessageFallbacks(t *testing.T) {
	err := New(ErrValidation, response.ErrClassFull, "")
	if CodeOf(err) != response.ErrClassFull {
		t.Errorf("CodeOf = %q", CodeOf(err))
	}
	if Message(err) != response.GetMessage(response.ErrClassFull) {
		t.Errorf("Message = %q", Message(err))
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Error("plain errors carry no code")
	}
	if Message(errors.New("plain")) != "plain" {
		t.Error("plain errors render as-is")
	}
}

func TestValidationCarriesFields(t *testing.T) {
	err := Validation(map[string]string{"email": "email must be a valid email address"})
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected validation kind")
	}
	if err.Fields["email"] == "" {
		t.Error("fields lost")
	}
}
