package scenario

import (
	"testing"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
)

func manifest(content string) []models.FileEntry {
	return []models.FileEntry{{Path: ManifestPath, Content: content}}
}

func TestParseGroupedManifest(t *testing.T) {
	scenarios := Parse(manifest(`{"outgoing":[{"source":"A","target":"B"}],"incoming":[]}`))

	if len(scenarios) != 1 {
		t.Fatalf("Expected 1 scenario, got %d", len(scenarios))
	}
	s := scenarios[0]
	if s.Direction != models.DirectionOutgoing {
		t.Errorf("Expected direction outgoing, got '%s'", s.Direction)
	}
	if s.ID != "outgoing-0" {
		t.Errorf("Expected id 'outgoing-0', got '%s'", s.ID)
	}
	if s.Source != "A" || s.Target != "B" {
		t.Errorf("Expected A -> B, got %s -> %s", s.Source, s.Target)
	}
	if s.File != "" || s.Description != "" {
		t.Errorf("Expected empty defaults, got file '%s' description '%s'", s.File, s.Description)
	}
}

func TestParseGroupedManifestIndexesPerDirection(t *testing.T) {
	scenarios := Parse(manifest(`{
  "incoming": [{"file": "in/a.json"}, {"id": "custom", "file": "in/b.json"}],
  "outgoing": [{"file": "out/a.json", "direction": "incoming"}]
}`))

	expected := []struct {
		id  string
		dir models.ScenarioDirection
	}{
		{"outgoing-0", models.DirectionOutgoing},
		{"incoming-0", models.DirectionIncoming},
		{"custom", models.DirectionIncoming},
	}

	if len(scenarios) != len(expected) {
		t.Fatalf("Expected %d scenarios, got %d", len(expected), len(scenarios))
	}
	for i, e := range expected {
		if scenarios[i].ID != e.id || scenarios[i].Direction != e.dir {
			t.Errorf("Scenario %d: expected (%s, %s), got (%s, %s)", i, e.id, e.dir, scenarios[i].ID, scenarios[i].Direction)
		}
	}
}

func TestParseFlatManifest(t *testing.T) {
	scenarios := Parse(manifest(`[
  {"source":"A","target":"B"},
  {"source":"C","target":"D","direction":"incoming"},
  {"direction":"INCOMING"},
  {"id":"scenario-0","direction":42}
]`))

	if len(scenarios) != 4 {
		t.Fatalf("Expected 4 scenarios, got %d", len(scenarios))
	}

	if scenarios[0].ID != "scenario-0" || scenarios[0].Direction != models.DirectionOutgoing {
		t.Errorf("Expected (scenario-0, outgoing), got (%s, %s)", scenarios[0].ID, scenarios[0].Direction)
	}
	if scenarios[1].ID != "scenario-1" || scenarios[1].Direction != models.DirectionIncoming {
		t.Errorf("Expected (scenario-1, incoming), got (%s, %s)", scenarios[1].ID, scenarios[1].Direction)
	}
	if scenarios[2].Direction != models.DirectionOutgoing {
		t.Errorf("Expected case-sensitive direction match, got '%s'", scenarios[2].Direction)
	}
	// colliding ids are kept as-is
	if scenarios[3].ID != "scenario-0" {
		t.Errorf("Expected explicit id 'scenario-0', got '%s'", scenarios[3].ID)
	}
}

func TestParseCoercesFields(t *testing.T) {
	scenarios := Parse(manifest(`[{"id": 7, "source": true, "target": 1.50, "description": null, "file": {"a": 1}}]`))

	if len(scenarios) != 1 {
		t.Fatalf("Expected 1 scenario, got %d", len(scenarios))
	}
	s := scenarios[0]
	if s.ID != "7" {
		t.Errorf("Expected id '7', got '%s'", s.ID)
	}
	if s.Source != "true" {
		t.Errorf("Expected source 'true', got '%s'", s.Source)
	}
	if s.Target != "1.5" {
		t.Errorf("Expected target '1.5', got '%s'", s.Target)
	}
	if s.Description != "" {
		t.Errorf("Expected empty description, got '%s'", s.Description)
	}
	if s.File != `{"a":1}` {
		t.Errorf("Expected compact JSON file, got '%s'", s.File)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{42, "42"},
		{-2.5, "-2.5"},
		{0, "0"},
		{0.000001, "0.000001"},
		{1e-7, "1e-7"},
		{1.5e-7, "1.5e-7"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{-1.25e30, "-1.25e+30"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := formatNumber(tt.value); got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}

	scenarios := Parse(manifest(`[{"id": 1e21}]`))
	if len(scenarios) != 1 || scenarios[0].ID != "1e+21" {
		t.Errorf("Expected id '1e+21', got %+v", scenarios)
	}
}

func TestParseDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name  string
		files []models.FileEntry
	}{
		{"no manifest", []models.FileEntry{{Path: "scenarios/a.json", Content: "{}"}}},
		{"syntax error", manifest(`{"outgoing": [`)},
		{"scalar", manifest(`"hello"`)},
		{"number", manifest(`42`)},
		{"null", manifest(`null`)},
		{"grouped with non-array members", manifest(`{"outgoing": "x", "incoming": 3}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenarios := Parse(tt.files)
			if scenarios == nil {
				t.Fatal("Expected non-nil empty slice")
			}
			if len(scenarios) != 0 {
				t.Errorf("Expected no scenarios, got %d", len(scenarios))
			}
		})
	}
}

func TestParseNonObjectEntries(t *testing.T) {
	scenarios := Parse(manifest(`{"outgoing": [1, "x", null]}`))
	if len(scenarios) != 3 {
		t.Fatalf("Expected 3 scenarios, got %d", len(scenarios))
	}
	if scenarios[2].ID != "outgoing-2" || scenarios[2].Source != "" {
		t.Errorf("Expected defaulted record, got %+v", scenarios[2])
	}
}

func TestContents(t *testing.T) {
	files := []models.FileEntry{
		{Path: ManifestPath, Content: "[]"},
		{Path: "scenarios/outgoing/mt103.json", Content: "mt103"},
		{Path: "scenarios/pacs.json", Content: "pacs"},
		{Path: "transform/a.json", Content: "{}"},
		{Path: "other/scenarios/x.json", Content: "x"},
	}

	contents := Contents(files)

	if len(contents) != 2 {
		t.Fatalf("Expected 2 entries, got %d: %v", len(contents), contents)
	}
	if contents["outgoing/mt103.json"] != "mt103" {
		t.Errorf("Expected 'mt103', got '%s'", contents["outgoing/mt103.json"])
	}
	if _, ok := contents["index.json"]; ok {
		t.Error("Manifest must not be indexed as content")
	}
}
