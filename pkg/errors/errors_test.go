package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Absence"), CodeNotFound, http.StatusNotFound},
		{"not found with id", NotFoundWithID("Absence", "abc"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad dates", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad date"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("no actor"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("admins only"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("already rejected"), CodeConflict, http.StatusConflict},
		{"slot unavailable", SlotUnavailable("b1", "2025-01-01", "10:00"), CodeSlotUnavailable, http.StatusConflict},
		{"internal", Internal("boom", errors.New("db down")), CodeInternal, http.StatusInternalServerError},
		{"unavailable", Unavailable("Schedule store"), CodeUnavailable, http.StatusServiceUnavailable},
		{"rate limited", RateLimited("slow down"), CodeRateLimited, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.StatusCode())
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	plain := NotFound("Schedule")
	if got := plain.Error(); got != "NOT_FOUND: Schedule not found" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := Internal("failed to book slot", errors.New("connection reset"))
	if got := wrapped.Error(); got != "INTERNAL_ERROR: failed to book slot (caused by: connection reset)" {
		t.Errorf("Error() = %q", got)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("original")
	appErr := Wrap(cause, CodeInternal, "wrapped", http.StatusInternalServerError)
	if !errors.Is(appErr, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestAppError_StatusCodeDefaultsToInternal(t *testing.T) {
	err := &AppError{Code: CodeConflict, Message: "no status"}
	if err.StatusCode() != http.StatusInternalServerError {
		t.Errorf("expected 500 for missing status, got %d", err.StatusCode())
	}
}

func TestNotFoundWithID_Details(t *testing.T) {
	err := NotFoundWithID("Booking", "b-42")
	if err.Details["id"] != "b-42" || err.Details["resource"] != "Booking" {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestSlotUnavailable_Details(t *testing.T) {
	err := SlotUnavailable("barber-1", "2025-06-01", "11:00")
	if err.Details["barber_id"] != "barber-1" || err.Details["time"] != "11:00" {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Forbidden("not yours")
	if AsAppError(appErr) != appErr {
		t.Error("expected the same AppError back")
	}

	wrapped := fmt.Errorf("processing action: %w", appErr)
	if AsAppError(wrapped) != appErr {
		t.Error("expected AsAppError to unwrap a wrapped AppError")
	}
	if !IsAppError(wrapped) {
		t.Error("expected IsAppError to see through wrapping")
	}

	plain := errors.New("plain")
	got := AsAppError(plain)
	if got.Code != CodeInternal || got.Err != plain {
		t.Errorf("expected plain error to become internal, got %+v", got)
	}
	if IsAppError(plain) {
		t.Error("plain error is not an AppError")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("booking: %w", SlotUnavailable("b", "d", "t"))
	if !HasCode(err, CodeSlotUnavailable) {
		t.Error("expected slot unavailable code")
	}
	if HasCode(err, CodeConflict) {
		t.Error("did not expect conflict code")
	}
	if HasCode(errors.New("x"), CodeInternal) {
		t.Error("plain errors carry no code")
	}
}

func TestAppError_Response(t *testing.T) {
	resp := Validation("bad", map[string]any{"field": "end_date"}).Response()
	if resp.Code != CodeValidation || resp.Message != "bad" || resp.Details["field"] != "end_date" {
		t.Errorf("unexpected response %+v", resp)
	}
}
