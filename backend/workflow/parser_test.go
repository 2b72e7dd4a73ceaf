package workflow

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
)

func TestParse(t *testing.T) {
	content := `{
  "id": "mt103-to-pacs008",
  "name": "MT103 to pacs.008",
  "priority": 10,
  "tasks": [{"id": "parse", "function": {"name": "parse_mt"}}],
  "condition": true
}`

	wf, err := Parse("transform/outgoing/MT103/mapping.json", content)
	if err != nil {
		t.Fatalf("Failed to parse workflow: %v", err)
	}

	if wf.ID != "mt103-to-pacs008" {
		t.Errorf("Expected id 'mt103-to-pacs008', got '%s'", wf.ID)
	}
	if wf.Name != "MT103 to pacs.008" {
		t.Errorf("Expected name 'MT103 to pacs.008', got '%s'", wf.Name)
	}
	if wf.Priority != 10 {
		t.Errorf("Expected priority 10, got %v", wf.Priority)
	}
	if wf.Path != "transform/outgoing/MT103" {
		t.Errorf("Expected path 'transform/outgoing/MT103', got '%s'", wf.Path)
	}
	if wf.Type != models.WorkflowTypeTransform {
		t.Errorf("Expected type transform, got '%s'", wf.Type)
	}
	if _, ok := wf.Document["condition"]; !ok {
		t.Error("Expected unknown field 'condition' to be kept")
	}
}

func TestParseDefaultsPriority(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"absent", `{"id":"a","name":"A","tasks":[]}`},
		{"null", `{"id":"a","name":"A","tasks":[],"priority":null}`},
		{"string", `{"id":"a","name":"A","tasks":[],"priority":"high"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf, err := Parse("validate/a.json", tt.content)
			if err != nil {
				t.Fatalf("Failed to parse workflow: %v", err)
			}
			if wf.Priority != models.DefaultPriority {
				t.Errorf("Expected priority %d, got %v", models.DefaultPriority, wf.Priority)
			}
		})
	}
}

func TestNullPrioritySortsAsDefault(t *testing.T) {
	a, err := Parse("transform/a.json", `{"id":"a","name":"A","tasks":[],"priority":50}`)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("transform/b.json", `{"id":"b","name":"B","tasks":[],"priority":null}`)
	if err != nil {
		t.Fatal(err)
	}

	workflows := []*models.Workflow{b, a}
	SortByPriority(workflows)
	if workflows[0].ID != "a" || workflows[1].ID != "b" {
		t.Errorf("Expected order [a b], got [%s %s]", workflows[0].ID, workflows[1].ID)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		expectedErr    error
		expectedFields []string
	}{
		{"syntax error", `{"id": "a",`, models.ErrInvalidJSON, nil},
		{"empty file", ``, models.ErrInvalidJSON, nil},
		{"missing everything", `{}`, models.ErrInvalidWorkflowSchema, []string{"id", "name", "tasks"}},
		{"empty id", `{"id":"","name":"A","tasks":[]}`, models.ErrInvalidWorkflowSchema, []string{"id"}},
		{"numeric name", `{"id":"a","name":5,"tasks":[]}`, models.ErrInvalidWorkflowSchema, []string{"name"}},
		{"tasks not array", `{"id":"a","name":"A","tasks":{}}`, models.ErrInvalidWorkflowSchema, []string{"tasks"}},
		{"tasks null", `{"id":"a","name":"A","tasks":null}`, models.ErrInvalidWorkflowSchema, []string{"tasks"}},
		{"top-level array", `[1,2,3]`, models.ErrInvalidWorkflowSchema, []string{"id", "name", "tasks"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("generate/x.json", tt.content)
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if !errors.Is(err, tt.expectedErr) {
				t.Errorf("Expected %v, got %v", tt.expectedErr, err)
			}

			var parseErr *models.ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Expected *models.ParseError, got %T", err)
			}
			if parseErr.Path != "generate/x.json" {
				t.Errorf("Expected path 'generate/x.json', got '%s'", parseErr.Path)
			}
			if tt.expectedFields != nil && !reflect.DeepEqual(parseErr.Fields, tt.expectedFields) {
				t.Errorf("Expected fields %v, got %v", tt.expectedFields, parseErr.Fields)
			}
		})
	}
}

func TestParseRootLevelPath(t *testing.T) {
	wf, err := Parse("a.json", `{"id":"a","name":"A","tasks":[]}`)
	if err != nil {
		t.Fatalf("Failed to parse workflow: %v", err)
	}
	if wf.Path != "" {
		t.Errorf("Expected empty path, got '%s'", wf.Path)
	}

	data, err := json.Marshal(wf)
	if err != nil {
		t.Fatalf("Failed to marshal workflow: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to decode workflow: %v", err)
	}
	if decoded["path"] != "" {
		t.Errorf("Expected marshalled path '', got '%v'", decoded["path"])
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path         string
		expectedType models.WorkflowType
		expectedOK   bool
	}{
		{"transform/a/b.json", models.WorkflowTypeTransform, true},
		{"validate/x.json", models.WorkflowTypeValidate, true},
		{"generate/deep/er/x.json", models.WorkflowTypeGenerate, true},
		{"transform/index.json", "", false},
		{"generate/sub/index.json", "", false},
		{"transform/myindex.json", models.WorkflowTypeTransform, true},
		{"other/a.json", "", false},
		{"validate/x.txt", "", false},
		{"Transform/a.json", "", false},
		{"transform.json", "", false},
		{"scenarios/transform/a.json", "", false},
		{"reframe-package.json", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			typ, ok := Classify(tt.path)
			if ok != tt.expectedOK || typ != tt.expectedType {
				t.Errorf("Expected (%q, %v), got (%q, %v)", tt.expectedType, tt.expectedOK, typ, ok)
			}
			if IsWorkflowFile(tt.path) != tt.expectedOK {
				t.Errorf("Expected IsWorkflowFile=%v for '%s'", tt.expectedOK, tt.path)
			}
		})
	}
}

func TestFolderOf(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"transform/outgoing/MT103/mapping.json", "transform/outgoing/MT103"},
		{"transform/a.json", "transform"},
		{"a.json", ""},
	}

	for _, tt := range tests {
		if got := FolderOf(tt.path); got != tt.expected {
			t.Errorf("Expected '%s', got '%s'", tt.expected, got)
		}
	}
}
