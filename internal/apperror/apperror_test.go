package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("username", "username is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("username or email already in use"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("user", "ada"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("invalid credentials"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Upload wraps ErrUpload",
			err:       Upload("avatar upload failed"),
			target:    ErrUpload,
			wantMatch: true,
		},
		{
			name:      "Internal wraps ErrInternal",
			err:       Internal("user vanished after create"),
			target:    ErrInternal,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrUnauthorized",
			err:       NotFound("user", "ada"),
			target:    ErrUnauthorized,
			wantMatch: false,
		},
		{
			name:      "Unauthorized does NOT match ErrValidation",
			err:       Unauthorized("invalid refresh token"),
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorsIs_SurvivesWrapping(t *testing.T) {
	// Services wrap repository errors with fmt.Errorf("...: %w", err).
	// The sentinel must still be reachable through the chain.
	inner := Conflict("email already in use")
	wrapped := fmt.Errorf("service/user: registering: %w", inner)

	if !errors.Is(wrapped, ErrConflict) {
		t.Error("wrapped AppError no longer matches ErrConflict")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As failed to extract *AppError from wrapped chain")
	}
	if appErr.Message != "email already in use" {
		t.Errorf("Message = %q, want %q", appErr.Message, "email already in use")
	}
}

func TestValidationFailed_CarriesField(t *testing.T) {
	err := ValidationFailed("email", "email is required")
	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
	if err.Error() != "email is required" {
		t.Errorf("Error() = %q, want the message", err.Error())
	}
}
