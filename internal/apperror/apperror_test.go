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
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("message", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("bio", "too long"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "InvalidContent is a validation error",
			err:       InvalidContent(),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "InvalidToken is unauthenticated",
			err:       InvalidToken(),
			target:    ErrUnauthenticated,
			wantMatch: true,
		},
		{
			name:      "NotReceiver is forbidden",
			err:       NotReceiver(),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "Persistence wraps ErrPersistence",
			err:       Persistence("Failed to send message due to server error.", errors.New("disk full")),
			target:    ErrPersistence,
			wantMatch: true,
		},
		{
			name:      "wrapped twice still matches",
			err:       fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", Conflict("dup"))),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("message", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"self message", SelfMessageNotAllowed(), CodeSelfMessageNotAllowed},
		{"wrapped receiver", fmt.Errorf("sending: %w", InvalidReceiver()), CodeInvalidReceiver},
		{"mismatch", AuthorizationMismatch(), CodeAuthorization},
		{"plain error", errors.New("boom"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{"NotFound message includes resource and id", NotFound("question", "abc123"), "question not found with id abc123"},
		{"missing token", Unauthenticated(), "Authentication error: Token not provided"},
		{"invalid message id", InvalidMessageID(), "Invalid message ID for marking as read."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestPersistenceHidesCause(t *testing.T) {
	err := Persistence("Failed to send global message due to server error.", errors.New("sqlite: locked"))

	if err.Error() != "Failed to send global message due to server error." {
		t.Errorf("Error() leaked cause: %q", err.Error())
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("email", "invalid email format")

	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
}
