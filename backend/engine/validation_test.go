package engine

import (
	"errors"
	"testing"
)

func TestNormalizeValidation(t *testing.T) {
	tests := []struct {
		name             string
		raw              string
		expectedValid    bool
		expectedErrors   int
		expectedWarnings int
		firstErrorCode   string
	}{
		{"valid", `{"valid": true, "errors": [], "warnings": []}`, true, 0, 0, ""},
		{"string errors", `{"valid": false, "errors": ["bad field 20"]}`, false, 1, 0, CodeValidationError},
		{"object errors", `{"errors": [{"code": "T20", "message": "missing", "path": "block4.20"}]}`, false, 1, 0, "T20"},
		{"warnings only", `{"warnings": ["deprecated"]}`, true, 0, 1, ""},
		{"valid missing derives from errors", `{"errors": []}`, true, 0, 0, ""},
		{"no fields", `{"output": "x"}`, false, 1, 0, CodeNoValidation},
		{"not an object", `["a"]`, false, 1, 0, CodeNoValidation},
		{"not JSON", `processed`, false, 1, 0, CodeNoValidation},
		{"empty", ``, false, 1, 0, CodeNoValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeValidation([]byte(tt.raw))
			if result.Valid != tt.expectedValid {
				t.Errorf("Expected valid=%v, got %v", tt.expectedValid, result.Valid)
			}
			if len(result.Errors) != tt.expectedErrors {
				t.Fatalf("Expected %d errors, got %d", tt.expectedErrors, len(result.Errors))
			}
			if len(result.Warnings) != tt.expectedWarnings {
				t.Errorf("Expected %d warnings, got %d", tt.expectedWarnings, len(result.Warnings))
			}
			if tt.firstErrorCode != "" && result.Errors[0].Code != tt.firstErrorCode {
				t.Errorf("Expected code '%s', got '%s'", tt.firstErrorCode, result.Errors[0].Code)
			}
			if result.Warnings == nil || result.Errors == nil {
				t.Error("Expected non-nil issue lists")
			}
		})
	}
}

func TestNormalizeValidationIssueFields(t *testing.T) {
	result := NormalizeValidation([]byte(`{
		"valid": false,
		"errors": [{"code": "T20", "message": "missing", "path": "block4.20"}, {"message": "no code"}],
		"warnings": ["check currency"]
	}`))

	if result.Errors[0].Path != "block4.20" || result.Errors[0].Message != "missing" {
		t.Errorf("Unexpected first error: %+v", result.Errors[0])
	}
	if result.Errors[1].Code != CodeValidationError {
		t.Errorf("Expected default code, got '%s'", result.Errors[1].Code)
	}
	if result.Warnings[0].Code != CodeWarning || result.Warnings[0].Message != "check currency" {
		t.Errorf("Unexpected warning: %+v", result.Warnings[0])
	}
}

func TestNoValidationMessage(t *testing.T) {
	result := NormalizeValidation([]byte(`{}`))
	if result.Errors[0].Message != NoValidationMessage {
		t.Errorf("Expected '%s', got '%s'", NoValidationMessage, result.Errors[0].Message)
	}
}

func TestErrorResult(t *testing.T) {
	result := ErrorResult(errors.New("engine crashed"))
	if result.Valid || len(result.Errors) != 1 || result.Errors[0].Message != "engine crashed" {
		t.Errorf("Unexpected result: %+v", result)
	}
}
