// Package loader assembles a package snapshot from the files of a package folder.
package loader

import (
	"log"
	"time"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
	"github.com/GoPlasmatic/Reframe-IDE/backend/scenario"
	"github.com/GoPlasmatic/Reframe-IDE/backend/workflow"
)

// CollectResult represents the outcome of parsing every workflow file of a package
type CollectResult struct {
	Workflows []*models.Workflow
	Found     int
	Errors    []error
}

// CollectWorkflows parses every file the classifier accepts, keeping successes and
// per-file failures apart. Successes are priority-sorted.
func CollectWorkflows(files []models.FileEntry) *CollectResult {
	result := &CollectResult{}

	for _, f := range files {
		if !workflow.IsWorkflowFile(f.Path) {
			continue
		}
		result.Found++

		wf, err := workflow.Parse(f.Path, f.Content)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Workflows = append(result.Workflows, wf)
	}

	workflow.SortByPriority(result.Workflows)
	return result
}

// Assemble builds the package snapshot. Missing or invalid metadata and an empty or
// entirely invalid workflow set abort the load; everything else is tolerated.
func Assemble(files []models.FileEntry, folderName string) (*models.PackageData, error) {
	var manifest *models.FileEntry
	for i := range files {
		if files[i].Path == ManifestFile {
			manifest = &files[i]
			break
		}
	}
	if manifest == nil {
		return nil, &models.ParseError{Kind: models.KindMissingPackageManifest, Path: ManifestFile}
	}

	metadata, err := ParseMetadata(manifest.Content)
	if err != nil {
		return nil, err
	}

	collected := CollectWorkflows(files)
	if len(collected.Workflows) == 0 {
		if len(collected.Errors) > 0 {
			details := make([]string, len(collected.Errors))
			for i, e := range collected.Errors {
				details[i] = e.Error()
			}
			return nil, &models.ParseError{Kind: models.KindAllWorkflowsInvalid, Details: details}
		}
		return nil, &models.ParseError{Kind: models.KindNoWorkflowsFound}
	}
	for _, e := range collected.Errors {
		log.Printf("Warning: Skipping invalid workflow: %v", e)
	}

	return &models.PackageData{
		Metadata:             *metadata,
		Workflows:            collected.Workflows,
		CategorizedWorkflows: workflow.Categorize(collected.Workflows),
		Scenarios:            scenario.Parse(files),
		ScenarioContents:     scenario.Contents(files),
		FolderName:           folderName,
		LoadedAt:             time.Now(),
	}, nil
}
