package engine

import (
	"encoding/json"
	"strconv"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
)

const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeWarning         = "WARNING"
	CodeNoValidation    = "NO_VALIDATION"
)

// NoValidationMessage is reported when the engine output carries no validation result
const NoValidationMessage = "No validation workflow matched the input format"

// NormalizeValidation turns raw validate output into a ValidationResult. Plain string
// entries become issues with a generic code; output without any of valid, errors or
// warnings means no validate workflow handled the input.
func NormalizeValidation(raw []byte) models.ValidationResult {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return noValidation()
	}

	validRaw, hasValid := doc["valid"]
	errorsRaw, hasErrors := doc["errors"]
	warningsRaw, hasWarnings := doc["warnings"]
	if !hasValid && !hasErrors && !hasWarnings {
		return noValidation()
	}

	result := models.ValidationResult{
		Errors:   issues(errorsRaw, CodeValidationError),
		Warnings: issues(warningsRaw, CodeWarning),
	}

	var valid bool
	if hasValid && json.Unmarshal(validRaw, &valid) == nil {
		result.Valid = valid
	} else {
		result.Valid = len(result.Errors) == 0
	}
	return result
}

// ErrorResult wraps an engine failure as a failed validation
func ErrorResult(err error) models.ValidationResult {
	return models.ValidationResult{
		Valid:    false,
		Errors:   []models.ValidationIssue{{Code: CodeValidationError, Message: err.Error()}},
		Warnings: []models.ValidationIssue{},
	}
}

func noValidation() models.ValidationResult {
	return models.ValidationResult{
		Valid:    false,
		Errors:   []models.ValidationIssue{{Code: CodeNoValidation, Message: NoValidationMessage}},
		Warnings: []models.ValidationIssue{},
	}
}

func issues(raw json.RawMessage, defaultCode string) []models.ValidationIssue {
	out := []models.ValidationIssue{}

	var entries []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &entries) != nil {
		return out
	}

	for _, entry := range entries {
		var v any
		if err := json.Unmarshal(entry, &v); err != nil || v == nil {
			continue
		}

		switch val := v.(type) {
		case string:
			out = append(out, models.ValidationIssue{Code: defaultCode, Message: val})
		case map[string]any:
			issue := models.ValidationIssue{Code: defaultCode}
			if code, ok := val["code"].(string); ok && code != "" {
				issue.Code = code
			}
			if path, ok := val["path"].(string); ok {
				issue.Path = path
			}
			if msg, ok := val["message"].(string); ok {
				issue.Message = msg
			} else {
				issue.Message = string(entry)
			}
			out = append(out, issue)
		case float64:
			out = append(out, models.ValidationIssue{Code: defaultCode, Message: strconv.FormatFloat(val, 'f', -1, 64)})
		case bool:
			out = append(out, models.ValidationIssue{Code: defaultCode, Message: strconv.FormatBool(val)})
		default:
			out = append(out, models.ValidationIssue{Code: defaultCode, Message: string(entry)})
		}
	}
	return out
}
