package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFound_MatchesSentinel(t *testing.T) {
	err := NotFound("error log", 42)

	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFound() should match ErrNotFound via errors.Is")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("NotFound() should not match ErrValidation")
	}
}

func TestNotFound_GenericMessage(t *testing.T) {
	// The message must not include the id — "absent" and "exists but not
	// yours" have to be indistinguishable to the caller.
	err := NotFound("error log", 42)
	if err.Error() != "error log not found" {
		t.Errorf("NotFound() message = %q, want %q", err.Error(), "error log not found")
	}
}

func TestValidationFailed(t *testing.T) {
	err := ValidationFailed("message", "message is required")

	if !errors.Is(err, ErrValidation) {
		t.Error("ValidationFailed() should match ErrValidation")
	}
	if err.Field != "message" {
		t.Errorf("Field = %q, want %q", err.Field, "message")
	}
	if err.Error() != "message is required" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestConflict(t *testing.T) {
	err := Conflict("user", "github_id already exists")
	if !errors.Is(err, ErrConflict) {
		t.Error("Conflict() should match ErrConflict")
	}
}

func TestUnauthorized(t *testing.T) {
	err := Unauthorized("Could not validate credentials")
	if !errors.Is(err, ErrUnauthorized) {
		t.Error("Unauthorized() should match ErrUnauthorized")
	}
	if err.Error() != "Could not validate credentials" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWrappedAppError_SurvivesChain(t *testing.T) {
	// Services wrap repository errors with %w; errors.Is must still find
	// the sentinel at the bottom of the chain.
	inner := NotFound("user", 7)
	wrapped := fmt.Errorf("service/auth: fetching user: %w", inner)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped AppError should still match ErrNotFound")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As should extract *AppError from the chain")
	}
	if appErr.Message != "user not found" {
		t.Errorf("Message = %q, want %q", appErr.Message, "user not found")
	}
}
