package loader

import (
	"bytes"
	"encoding/json"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
)

// ManifestFile is the package descriptor every package root must contain
const ManifestFile = "reframe-package.json"

// ParseMetadata parses and validates reframe-package.json.
// Optional fields with an unexpected type are ignored rather than failing the package.
func ParseMetadata(content string) (*models.PackageMetadata, error) {
	var probe any
	if err := json.Unmarshal([]byte(content), &probe); err != nil {
		return nil, &models.ParseError{Kind: models.KindInvalidPackageJSON, Path: ManifestFile, Err: err}
	}

	doc := map[string]json.RawMessage{}
	if obj, ok := probe.(map[string]any); ok && obj != nil {
		if err := json.Unmarshal([]byte(content), &doc); err != nil {
			return nil, &models.ParseError{Kind: models.KindInvalidPackageJSON, Path: ManifestFile, Err: err}
		}
	}

	meta := &models.PackageMetadata{}
	var missing []string
	for _, field := range []struct {
		key string
		dst *string
	}{
		{"id", &meta.ID},
		{"name", &meta.Name},
		{"version", &meta.Version},
	} {
		if !decodeField(doc, field.key, field.dst) || *field.dst == "" {
			missing = append(missing, field.key)
		}
	}
	if len(missing) > 0 {
		return nil, &models.ParseError{Kind: models.KindInvalidPackageMetadata, Path: ManifestFile, Fields: missing}
	}

	decodeField(doc, "description", &meta.Description)
	decodeField(doc, "author", &meta.Author)
	decodeField(doc, "license", &meta.License)
	decodeField(doc, "engine_version", &meta.EngineVersion)
	var plugins []string
	if decodeField(doc, "required_plugins", &plugins) {
		meta.RequiredPlugins = plugins
	}

	var hints map[string]json.RawMessage
	if decodeField(doc, "workflows", &hints) {
		for _, t := range models.WorkflowTypes {
			var hint models.WorkflowHint
			if decodeField(hints, string(t), &hint) {
				if meta.Workflows == nil {
					meta.Workflows = make(map[models.WorkflowType]models.WorkflowHint)
				}
				meta.Workflows[t] = hint
			}
		}
	}

	return meta, nil
}

// decodeField unmarshals doc[key] into dst, reporting whether a non-null value was decoded
func decodeField(doc map[string]json.RawMessage, key string, dst any) bool {
	raw, ok := doc[key]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}
