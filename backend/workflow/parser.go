package workflow

import (
	"bytes"
	"encoding/json"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
)

// Parse parses a workflow JSON document found at filePath.
// The document is kept as-is; id, name, priority and the containing folder are lifted out of it.
func Parse(filePath, content string) (*models.Workflow, error) {
	data := []byte(content)
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &models.ParseError{Kind: models.KindInvalidJSON, Path: filePath, Err: err}
	}

	doc := map[string]json.RawMessage{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, &models.ParseError{Kind: models.KindInvalidJSON, Path: filePath, Err: err}
		}
	}

	wf := &models.Workflow{
		Priority: models.DefaultPriority,
		Path:     FolderOf(filePath),
		Source:   filePath,
		Document: doc,
	}
	wf.Type, _ = Classify(filePath)

	// Validate required fields
	var missing []string
	if id, ok := stringField(doc, "id"); ok {
		wf.ID = id
	} else {
		missing = append(missing, "id")
	}
	if name, ok := stringField(doc, "name"); ok {
		wf.Name = name
	} else {
		missing = append(missing, "name")
	}
	if !isArray(doc["tasks"]) {
		missing = append(missing, "tasks")
	}
	if len(missing) > 0 {
		return nil, &models.ParseError{Kind: models.KindInvalidWorkflowSchema, Path: filePath, Fields: missing}
	}

	// null counts as absent
	if raw, ok := doc["priority"]; ok && string(bytes.TrimSpace(raw)) != "null" {
		var priority float64
		if err := json.Unmarshal(raw, &priority); err == nil {
			wf.Priority = priority
		}
	}

	return wf, nil
}

// stringField returns a non-empty string value of a top-level field
func stringField(doc map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := doc[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
