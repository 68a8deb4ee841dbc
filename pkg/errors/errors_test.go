package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidDeclaration, "bad identity: %s", "x y")

	if err.Code != ErrCodeInvalidDeclaration {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidDeclaration)
	}
	if err.Message != "bad identity: x y" {
		t.Errorf("Message = %v, want %v", err.Message, "bad identity: x y")
	}
	expected := "INVALID_DECLARATION: bad identity: x y"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("A -> B -> A")
	err := Wrap(ErrCodeCycleDetected, cause, "resolve")

	if err.Code != ErrCodeCycleDetected {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeCycleDetected)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if got := err.Error(); got != "CYCLE_DETECTED: resolve: A -> B -> A" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeInvalidInput, "test"), ErrCodeInvalidInput, true},
		{"non-matching code", New(ErrCodeInvalidInput, "test"), ErrCodeNotFound, false},
		{"wrapped error", Wrap(ErrCodeCycleDetected, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeCycleDetected, true},
		{"non-Error type", errors.New("plain error"), ErrCodeInvalidInput, false},
		{"nil error", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeCacheUnavailable, "test"), ErrCodeCacheUnavailable},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeInvalidInput, "friendly message"), "friendly message"},
		{"wrapped", Wrap(ErrCodeInvalidConfig, errors.New("no such key"), "load config"), "load config: no such key"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrCodeInvalidPath, "x"), 400},
		{New(ErrCodeNotFound, "x"), 404},
		{New(ErrCodeCycleDetected, "x"), 409},
		{New(ErrCodeValidationFailed, "x"), 422},
		{New(ErrCodeCacheUnavailable, "x"), 503},
		{errors.New("plain"), 500},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
