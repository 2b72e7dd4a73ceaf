package workflow

import (
	"path"
	"strings"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
)

// IndexFileName is never treated as a workflow, whatever folder it lives in
const IndexFileName = "index.json"

// Classify reports whether a package-relative path is a workflow definition and, if so,
// which category its top-level folder puts it in. Paths are forward-slash and case-sensitive.
func Classify(filePath string) (models.WorkflowType, bool) {
	if path.Base(filePath) == IndexFileName {
		return "", false
	}
	if !strings.HasSuffix(filePath, ".json") {
		return "", false
	}

	for _, t := range models.WorkflowTypes {
		if strings.HasPrefix(filePath, string(t)+"/") {
			return t, true
		}
	}
	return "", false
}

// IsWorkflowFile checks if a path is a workflow JSON file
func IsWorkflowFile(filePath string) bool {
	_, ok := Classify(filePath)
	return ok
}

// FolderOf returns everything before the last slash, or "" for root-level files
// e.g. "transform/outgoing/MT103/mapping.json" -> "transform/outgoing/MT103"
func FolderOf(filePath string) string {
	idx := strings.LastIndex(filePath, "/")
	if idx == -1 {
		return ""
	}
	return filePath[:idx]
}
