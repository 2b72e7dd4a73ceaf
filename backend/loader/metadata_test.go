package loader

import (
	"errors"
	"reflect"
	"testing"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
)

func TestParseMetadata(t *testing.T) {
	content := `{
  "id": "swift-cbpr",
  "name": "SWIFT CBPR+",
  "version": "2.1.0",
  "description": "Cross-border payments",
  "author": "Plasmatic",
  "license": "Apache-2.0",
  "engine_version": ">=3.0",
  "required_plugins": ["parse_mt", "publish_mx"],
  "workflows": {
    "transform": {"path": "transform", "description": "MT <-> MX"},
    "validate": {"path": "validate"},
    "unknown": {"path": "x"}
  }
}`

	meta, err := ParseMetadata(content)
	if err != nil {
		t.Fatalf("Failed to parse metadata: %v", err)
	}

	if meta.ID != "swift-cbpr" || meta.Name != "SWIFT CBPR+" || meta.Version != "2.1.0" {
		t.Errorf("Unexpected required fields: %+v", meta)
	}
	if meta.EngineVersion != ">=3.0" {
		t.Errorf("Expected engine_version '>=3.0', got '%s'", meta.EngineVersion)
	}
	if !reflect.DeepEqual(meta.RequiredPlugins, []string{"parse_mt", "publish_mx"}) {
		t.Errorf("Unexpected required_plugins: %v", meta.RequiredPlugins)
	}
	if len(meta.Workflows) != 2 {
		t.Errorf("Expected 2 workflow hints, got %d", len(meta.Workflows))
	}
	if meta.Workflows[models.WorkflowTypeTransform].Description != "MT <-> MX" {
		t.Errorf("Unexpected transform hint: %+v", meta.Workflows[models.WorkflowTypeTransform])
	}
}

func TestParseMetadataToleratesBadOptionalFields(t *testing.T) {
	meta, err := ParseMetadata(`{"id":"a","name":"A","version":"1","author":42,"required_plugins":"x","workflows":[]}`)
	if err != nil {
		t.Fatalf("Expected optional fields to be tolerated, got: %v", err)
	}
	if meta.Author != "" || meta.RequiredPlugins != nil || meta.Workflows != nil {
		t.Errorf("Expected bad optional fields to be dropped, got %+v", meta)
	}
}

func TestParseMetadataErrors(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		expectedErr    error
		expectedFields []string
	}{
		{"syntax", `{"id": "a"`, models.ErrInvalidPackageJSON, nil},
		{"empty", ``, models.ErrInvalidPackageJSON, nil},
		{"missing all", `{}`, models.ErrInvalidPackageMetadata, []string{"id", "name", "version"}},
		{"empty name", `{"id":"a","name":"","version":"1"}`, models.ErrInvalidPackageMetadata, []string{"name"}},
		{"numeric version", `{"id":"a","name":"A","version":1}`, models.ErrInvalidPackageMetadata, []string{"version"}},
		{"array", `[]`, models.ErrInvalidPackageMetadata, []string{"id", "name", "version"}},
		{"null", `null`, models.ErrInvalidPackageMetadata, []string{"id", "name", "version"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMetadata(tt.content)
			if !errors.Is(err, tt.expectedErr) {
				t.Fatalf("Expected %v, got %v", tt.expectedErr, err)
			}
			var parseErr *models.ParseError
			if errors.As(err, &parseErr) && tt.expectedFields != nil && !reflect.DeepEqual(parseErr.Fields, tt.expectedFields) {
				t.Errorf("Expected fields %v, got %v", tt.expectedFields, parseErr.Fields)
			}
		})
	}
}
