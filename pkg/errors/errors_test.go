package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   NotFound("Car"),
			expected: "NOT_FOUND: Car not found",
		},
		{
			name:     "with underlying error",
			appErr:   Internal("Failed to save booking", errors.New("connection reset")),
			expected: "INTERNAL_ERROR: Failed to save booking (caused by: connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConstructors_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"validation is a bad request", Validation("Validation failed", nil), CodeValidation, http.StatusBadRequest},
		{"invalid input", InvalidInput("Invalid user ID"), CodeInvalidInput, http.StatusBadRequest},
		{"bad request", BadRequest("Car is under maintenance"), CodeBadRequest, http.StatusBadRequest},
		{"unauthorized", Unauthorized("No active session"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("Admin access required"), CodeForbidden, http.StatusForbidden},
		{"not found", NotFoundWithID("Booking", "abc"), CodeNotFound, http.StatusNotFound},
		{"conflict", Conflict("Car is already booked for these dates"), CodeConflict, http.StatusConflict},
		{"rate limited", TooManyRequests("Too many login attempts"), CodeRateLimited, http.StatusTooManyRequests},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("Request timeout"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Image storage"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("StatusCode() = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
		})
	}
}

func TestNotFoundWithID_Details(t *testing.T) {
	err := NotFoundWithID("Car", "65f1c0ffee")

	if err.Message != "Car not found" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Details["id"] != "65f1c0ffee" || err.Details["resource"] != "Car" {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := errors.New("duplicate key")
	wrapped := Wrap(cause, CodeConflict, "Email already registered", http.StatusConflict)

	if !errors.Is(wrapped, cause) {
		t.Errorf("errors.Is should reach the wrapped cause")
	}
	if errors.Unwrap(wrapped) != cause {
		t.Errorf("Unwrap() should return the cause")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Forbidden("You cannot delete your own account")

	if got := AsAppError(appErr); got != appErr {
		t.Errorf("AsAppError() should return the same AppError")
	}

	wrapped := fmt.Errorf("handler: %w", appErr)
	if got := AsAppError(wrapped); got != appErr {
		t.Errorf("AsAppError() should find an AppError inside a wrapped chain")
	}
	if !IsAppError(wrapped) {
		t.Errorf("IsAppError() should see through wrapping")
	}

	plain := errors.New("socket closed")
	got := AsAppError(plain)
	if got.Code != CodeInternal || got.Err != plain {
		t.Errorf("AsAppError() should wrap plain errors as internal, got %+v", got)
	}
	if strings.Contains(got.Message, "socket") {
		t.Errorf("internal message must not leak the cause, got %q", got.Message)
	}
	if IsAppError(plain) {
		t.Errorf("IsAppError() should be false for plain errors")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	data := string(Validation("Validation failed", map[string]any{"email": "Invalid email format"}).WithDetails(
		map[string]any{"email": "Invalid email format"},
	).ToJSON())

	for _, want := range []string{"VALIDATION_ERROR", "Validation failed", "Invalid email format"} {
		if !strings.Contains(data, want) {
			t.Errorf("ToJSON() = %s, missing %q", data, want)
		}
	}
}
