package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	if err := New(ErrCodeTimeout, "timed out"); !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_NotFound_EmptyID(t *testing.T) {
	err := NotFound("provider", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
	if err.Details["resource"] != "provider" {
		t.Errorf("expected resource=provider, got %v", err.Details["resource"])
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Internal(nil).WithCause(cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := StorageFailure("tracks", 3, nil).WithDetails(map[string]any{"pass_id": "p1"})
	if err.Details["table"] != "tracks" {
		t.Errorf("expected original detail kept, got %v", err.Details["table"])
	}
	if err.Details["pass_id"] != "p1" {
		t.Errorf("expected merged detail, got %v", err.Details["pass_id"])
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := Conflict("busy").WithDetail("collector", "tracks")
	if err.Details["collector"] != "tracks" {
		t.Errorf("expected detail on nil map, got %v", err.Details)
	}
}

func TestAppError_Error_Format(t *testing.T) {
	plain := Conflict("run already in progress")
	if got := plain.Error(); got != "CONFLICT: run already in progress" {
		t.Errorf("unexpected format %q", got)
	}
	withCause := HookFailure("consume", fmt.Errorf("bad row"))
	if got := withCause.Error(); !strings.Contains(got, "(cause: bad row)") {
		t.Errorf("expected cause in message, got %q", got)
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		retryable bool
	}{
		{"ServiceUnavailable", ServiceUnavailable("redis"), ErrCodeServiceUnavailable, true},
		{"ConnectionFailed", ConnectionFailed("database"), ErrCodeConnectionFailed, true},
		{"Timeout", Timeout("insert"), ErrCodeTimeout, true},
		{"Conflict", Conflict("busy"), ErrCodeConflict, false},
		{"InvalidInput", InvalidInput("ceiling", "must be positive"), ErrCodeInvalidInput, false},
		{"MissingField", MissingField("table"), ErrCodeMissingField, false},
		{"Validation", Validation("bad input"), ErrCodeInvalidInput, false},
		{"DatabaseError", DatabaseError(nil), ErrCodeDatabaseError, true},
		{"ExternalServiceError", ExternalServiceError("s3", nil), ErrCodeExternalService, true},
		{"HookFailure", HookFailure("prepare", nil), ErrCodeHookFailure, false},
		{"StorageFailure", StorageFailure("tracks", 10, nil), ErrCodeStorageFailure, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
		})
	}
}

func TestHookFailureDetails(t *testing.T) {
	cause := fmt.Errorf("transform failed")
	err := HookFailure("consume", cause)
	if err.Details["stage"] != "consume" {
		t.Errorf("expected stage detail, got %v", err.Details)
	}
	if err.Unwrap() != cause {
		t.Error("expected cause to unwrap")
	}
}

func TestStorageFailureDetails(t *testing.T) {
	err := StorageFailure("tracks", 15, fmt.Errorf("constraint"))
	if err.Details["table"] != "tracks" || err.Details["records"] != 15 {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestErrorCode_IsRetryableCode_Table(t *testing.T) {
	retryable := []ErrorCode{ErrCodeServiceUnavailable, ErrCodeConnectionFailed, ErrCodeTimeout, ErrCodeDatabaseError, ErrCodeExternalService, ErrCodeStorageFailure}
	for _, code := range retryable {
		if !IsRetryableCode(code) {
			t.Errorf("expected %s to be retryable", code)
		}
	}

	nonRetryable := []ErrorCode{ErrCodeNotFound, ErrCodeConflict, ErrCodeInvalidInput, ErrCodeHookFailure, ErrCodeInternal}
	for _, code := range nonRetryable {
		if IsRetryableCode(code) {
			t.Errorf("expected %s to NOT be retryable", code)
		}
	}
}

func TestIs(t *testing.T) {
	hook := HookFailure("consume", nil)
	store := StorageFailure("tracks", 1, nil)

	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"nil", nil, ErrCodeHookFailure, false},
		{"direct", hook, ErrCodeHookFailure, true},
		{"other code", hook, ErrCodeStorageFailure, false},
		{"wrapped", fmt.Errorf("pass: %w", store), ErrCodeStorageFailure, true},
		{"joined first", stderrors.Join(hook, store), ErrCodeHookFailure, true},
		{"joined second", stderrors.Join(hook, store), ErrCodeStorageFailure, true},
		{"joined missing", stderrors.Join(hook, store), ErrCodeConflict, false},
		{"plain", fmt.Errorf("plain"), ErrCodeInternal, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Is(tc.err, tc.code); got != tc.want {
				t.Errorf("Is() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAppError_IsAppError_Success(t *testing.T) {
	appErr := NotFound("x", "")
	if !IsAppError(appErr) {
		t.Error("expected IsAppError to return true for AppError")
	}
	if !IsAppError(fmt.Errorf("wrapped: %w", appErr)) {
		t.Error("expected IsAppError to return true for wrapped AppError")
	}
	if IsAppError(fmt.Errorf("plain error")) {
		t.Error("expected IsAppError to return false for plain error")
	}
}

func TestAppError_AsAppError_Success(t *testing.T) {
	wrapped := fmt.Errorf("wrap: %w", Internal(nil))

	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to succeed for wrapped AppError")
	}
	if got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}
	if _, ok := AsAppError(fmt.Errorf("not an app error")); ok {
		t.Error("expected AsAppError to return false for non-AppError")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}

	orig := NotFound("item", "1")
	if Wrap(orig) != orig {
		t.Error("Wrap should return the original AppError unchanged")
	}
	if got := Wrap(fmt.Errorf("outer: %w", orig)); got.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", got.Code)
	}

	plain := fmt.Errorf("something broke")
	got := Wrap(plain)
	if got.Code != ErrCodeInternal || got.Cause != plain {
		t.Errorf("expected internal wrapping of plain error, got %+v", got)
	}
}

func TestPanicError(t *testing.T) {
	cause := fmt.Errorf("nil map")
	if err := PanicError(cause); !stderrors.Is(err, cause) {
		t.Errorf("expected panic error to wrap %v, got %v", cause, err)
	}
	if err := PanicError("index out of range"); err.Error() != "panic: index out of range" {
		t.Errorf("unexpected panic message %q", err.Error())
	}
}
