package models

import (
	"encoding/json"
	"time"
)

// WorkflowType is the category of a workflow, derived from its top-level folder
type WorkflowType string

// WorkflowType constants
const (
	WorkflowTypeTransform WorkflowType = "transform"
	WorkflowTypeValidate  WorkflowType = "validate"
	WorkflowTypeGenerate  WorkflowType = "generate"
)

// WorkflowTypes lists every category in display order
var WorkflowTypes = []WorkflowType{
	WorkflowTypeTransform,
	WorkflowTypeValidate,
	WorkflowTypeGenerate,
}

// DefaultPriority is used for workflows that carry no numeric priority
const DefaultPriority = 100

// FileEntry is a package file addressed by its package-relative, forward-slash path
type FileEntry struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// WorkflowHint describes where the package keeps one workflow type
type WorkflowHint struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}

// PackageMetadata is the content of reframe-package.json
type PackageMetadata struct {
	ID              string                        `json:"id"`
	Name            string                        `json:"name"`
	Version         string                        `json:"version"`
	Description     string                        `json:"description,omitempty"`
	Author          string                        `json:"author,omitempty"`
	License         string                        `json:"license,omitempty"`
	EngineVersion   string                        `json:"engine_version,omitempty"`
	RequiredPlugins []string                      `json:"required_plugins,omitempty"`
	Workflows       map[WorkflowType]WorkflowHint `json:"workflows,omitempty"`
}

// Workflow is an opaque task-graph document plus the fields this layer derives from it.
// Document holds every top-level field of the source file untouched; Path is the folder
// the file lives in and is only a grouping hint for the visualizer.
type Workflow struct {
	ID       string
	Name     string
	Priority float64
	Type     WorkflowType
	Path     string
	Source   string
	Document map[string]json.RawMessage
}

// MarshalJSON emits the original document with the derived path field set
func (w *Workflow) MarshalJSON() ([]byte, error) {
	doc := make(map[string]json.RawMessage, len(w.Document)+1)
	for k, v := range w.Document {
		doc[k] = v
	}
	path, err := json.Marshal(w.Path)
	if err != nil {
		return nil, err
	}
	doc["path"] = path
	return json.Marshal(doc)
}

// CategorizedWorkflows buckets workflows by type, each bucket priority-ordered
type CategorizedWorkflows struct {
	Transform []*Workflow `json:"transform"`
	Validate  []*Workflow `json:"validate"`
	Generate  []*Workflow `json:"generate"`
}

// Get returns the bucket for a workflow type
func (c *CategorizedWorkflows) Get(t WorkflowType) []*Workflow {
	switch t {
	case WorkflowTypeTransform:
		return c.Transform
	case WorkflowTypeValidate:
		return c.Validate
	case WorkflowTypeGenerate:
		return c.Generate
	}
	return nil
}

// Counts returns the number of workflows in each bucket
func (c *CategorizedWorkflows) Counts() map[WorkflowType]int {
	return map[WorkflowType]int{
		WorkflowTypeTransform: len(c.Transform),
		WorkflowTypeValidate:  len(c.Validate),
		WorkflowTypeGenerate:  len(c.Generate),
	}
}

// ScenarioDirection tells whether a scenario produces an outgoing or incoming message
type ScenarioDirection string

// ScenarioDirection constants
const (
	DirectionOutgoing ScenarioDirection = "outgoing"
	DirectionIncoming ScenarioDirection = "incoming"
)

// Scenario is one entry of scenarios/index.json
type Scenario struct {
	ID          string            `json:"id"`
	File        string            `json:"file"`
	Source      string            `json:"source"`
	Target      string            `json:"target"`
	Description string            `json:"description"`
	Direction   ScenarioDirection `json:"direction"`
}

// PackageData is the immutable snapshot produced by one package load
type PackageData struct {
	Metadata             PackageMetadata      `json:"metadata"`
	Workflows            []*Workflow          `json:"workflows"`
	CategorizedWorkflows CategorizedWorkflows `json:"categorized_workflows"`
	Scenarios            []Scenario           `json:"scenarios"`
	ScenarioContents     map[string]string    `json:"scenario_contents"`
	FolderName           string               `json:"folder_name"`
	LoadedAt             time.Time            `json:"loaded_at"`
}

// ScenarioByID finds a scenario by its id
func (p *PackageData) ScenarioByID(id string) (Scenario, bool) {
	for _, s := range p.Scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// ScenariosByDirection filters the scenario catalog, keeping manifest order
func (p *PackageData) ScenariosByDirection(dir ScenarioDirection) []Scenario {
	result := make([]Scenario, 0, len(p.Scenarios))
	for _, s := range p.Scenarios {
		if s.Direction == dir {
			result = append(result, s)
		}
	}
	return result
}

// ValidationIssue is a single error or warning reported by a validate run
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// ValidationResult is the normalized outcome of a validate call
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

// RecentPackage is a previously opened package folder
type RecentPackage struct {
	ID             string    `json:"id"`
	RootPath       string    `json:"root_path"`
	FolderName     string    `json:"folder_name"`
	PackageID      string    `json:"package_id"`
	PackageName    string    `json:"package_name"`
	PackageVersion string    `json:"package_version"`
	WorkflowCount  int       `json:"workflow_count"`
	ScenarioCount  int       `json:"scenario_count"`
	OpenedAt       time.Time `json:"opened_at"`
}
