package validation

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/vnykmshr/chainflow/pkg/common/errors"
)

func checkResult(t *testing.T, err error, wantError bool) {
	t.Helper()
	if wantError {
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !errors.IsValidationError(err) {
			t.Errorf("expected ValidationError, got %T", err)
		}
		if !stderrors.Is(err, errors.ErrInvalidConfiguration) {
			t.Error("validation errors should match ErrInvalidConfiguration")
		}
		return
	}
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"one", 1, false},
		{"zero value", 0, true},
		{"negative value", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkResult(t, ValidatePositive("source", "burst", tt.value), tt.wantError)
		})
	}
}

func TestValidatePositiveFloat(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		wantError bool
	}{
		{"positive value", 5.5, false},
		{"very small positive", 1e-10, false},
		{"zero value", 0.0, true},
		{"negative value", -2.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkResult(t, ValidatePositiveFloat("source", "rate", tt.value), tt.wantError)
		})
	}
}

func TestValidateNonNegativeDuration(t *testing.T) {
	tests := []struct {
		name      string
		value     time.Duration
		wantError bool
	}{
		{"zero", 0, false},
		{"positive", time.Second, false},
		{"negative", -time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkResult(t, ValidateNonNegativeDuration("redislist", "block_timeout", tt.value), tt.wantError)
		})
	}
}

func TestValidateNotNil(t *testing.T) {
	tests := []struct {
		name      string
		value     interface{}
		wantError bool
	}{
		{"non-nil int", 123, false},
		{"non-nil struct", struct{}{}, false},
		{"nil value", nil, true},
		{"nil pointer", (*int)(nil), false}, // typed nil is not nil interface
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkResult(t, ValidateNotNil("pipeline", "source", tt.value), tt.wantError)
		})
	}
}

func TestValidateNotEmpty(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantError bool
	}{
		{"non-empty string", "jobs", false},
		{"whitespace", " ", false},
		{"empty string", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkResult(t, ValidateNotEmpty("redislist", "key", tt.value), tt.wantError)
		})
	}
}

func TestValidateOneOf(t *testing.T) {
	checkResult(t, ValidateOneOf("logging", "format", "json", "json", "console"), false)
	checkResult(t, ValidateOneOf("logging", "format", "xml", "json", "console"), true)

	err := ValidateOneOf("logging", "format", "xml", "json", "console")
	verr, ok := err.(*errors.ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Hint != "use one of: json, console" {
		t.Errorf("Hint = %q", verr.Hint)
	}
}

func TestValidationErrorDetails(t *testing.T) {
	err := ValidatePositive("source", "burst", -5)
	valErr, ok := err.(*errors.ValidationError)
	if !ok {
		t.Fatalf("could not cast %T to ValidationError", err)
	}

	if valErr.Module != "source" {
		t.Errorf("Module = %q, want %q", valErr.Module, "source")
	}
	if valErr.Field != "burst" {
		t.Errorf("Field = %q, want %q", valErr.Field, "burst")
	}
	if valErr.Value != -5 {
		t.Errorf("Value = %v, want %v", valErr.Value, -5)
	}
	if valErr.Hint != "value must be greater than 0" {
		t.Errorf("Hint = %q, want %q", valErr.Hint, "value must be greater than 0")
	}
}
