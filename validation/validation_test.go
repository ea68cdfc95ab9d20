package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/collector/errors"
)

func TestValidatorRequired(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"tracks", false},
		{"", true},
		{"   ", true},
	}
	for _, tc := range tests {
		v := New().Required("table", tc.value)
		if v.HasErrors() != tc.wantErr {
			t.Errorf("Required(%q) errors = %v, want %v", tc.value, v.HasErrors(), tc.wantErr)
		}
	}
}

func TestValidatorMin(t *testing.T) {
	if New().Min("ceiling", 1, 1).HasErrors() {
		t.Error("expected 1 to satisfy min 1")
	}
	v := New().Min("ceiling", 0, 1)
	if !v.HasErrors() || v.Errors()[0].Message != "must be at least 1" {
		t.Errorf("unexpected errors %v", v.Errors())
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"abort", "isolate"}
	if New().OneOf("failure_policy", "isolate", allowed).HasErrors() {
		t.Error("expected allowed value to pass")
	}
	if New().OneOf("failure_policy", "", allowed).HasErrors() {
		t.Error("expected empty value to be skipped")
	}
	v := New().OneOf("failure_policy", "retry", allowed)
	if !v.HasErrors() || !strings.Contains(v.Errors()[0].Message, "abort, isolate") {
		t.Errorf("unexpected errors %v", v.Errors())
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New().Custom(false, "bucket", "custom error")
	if !v.HasErrors() {
		t.Fatal("expected error for false condition")
	}
	if v.Errors()[0].Message != "custom error" {
		t.Errorf("expected 'custom error', got %q", v.Errors()[0].Message)
	}
}

func TestValidatorValidate(t *testing.T) {
	if err := New().Required("name", "x").Validate(); err != nil {
		t.Errorf("expected nil for valid input, got %v", err)
	}

	err := New().Required("table", "").Required("topic", "").Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Fatalf("expected two field errors in details, got %v", appErr.Details)
	}
	if !strings.Contains(appErr.Message, "table") || !strings.Contains(appErr.Message, "topic") {
		t.Errorf("expected both fields in message, got %q", appErr.Message)
	}
}

func TestValidatorChaining(t *testing.T) {
	v := New()
	if result := v.Required("name", "x").Min("ceiling", 2, 1); result != v {
		t.Error("expected chaining to return same validator")
	}
}

type collectorSection struct {
	Ceiling int    `mapstructure:"ceiling" validate:"gte=1"`
	Policy  string `mapstructure:"failure_policy" validate:"omitempty,oneof=abort isolate"`
	Table   string `mapstructure:"table" validate:"required"`
}

type jobSection struct {
	Name      string           `json:"name" validate:"required,min=3"`
	Collector collectorSection `mapstructure:"collector"`
}

func TestStructValidate(t *testing.T) {
	tests := []struct {
		name     string
		input    jobSection
		wantMsgs []string
	}{
		{
			name:  "valid",
			input: jobSection{Name: "job", Collector: collectorSection{Ceiling: 2, Table: "tracks"}},
		},
		{
			name:     "nested gte and required",
			input:    jobSection{Name: "job", Collector: collectorSection{Ceiling: 0}},
			wantMsgs: []string{"collector.ceiling: must be at least 1", "collector.table: is required"},
		},
		{
			name:     "oneof",
			input:    jobSection{Name: "job", Collector: collectorSection{Ceiling: 1, Table: "t", Policy: "retry"}},
			wantMsgs: []string{"collector.failure_policy: must be one of: abort isolate"},
		},
		{
			name:     "json tag name and string min",
			input:    jobSection{Name: "jb", Collector: collectorSection{Ceiling: 1, Table: "t"}},
			wantMsgs: []string{"name: must be at least 3 characters"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.input)
			if len(tc.wantMsgs) == 0 {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			for _, want := range tc.wantMsgs {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("expected %q in %q", want, err.Error())
				}
			}
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"BatchSize":   "batch_size",
		"Ceiling":     "ceiling",
		"sizeCeiling": "size_ceiling",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
