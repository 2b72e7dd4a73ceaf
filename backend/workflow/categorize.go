package workflow

import (
	"sort"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
)

// SortByPriority orders workflows by ascending priority in place.
// Equal priorities keep their encounter order.
func SortByPriority(workflows []*models.Workflow) {
	sort.SliceStable(workflows, func(i, j int) bool {
		return workflows[i].Priority < workflows[j].Priority
	})
}

// Categorize buckets workflows by the type fixed at parse time.
// Each bucket is sorted independently, so the input order only matters for ties.
func Categorize(workflows []*models.Workflow) models.CategorizedWorkflows {
	result := models.CategorizedWorkflows{
		Transform: []*models.Workflow{},
		Validate:  []*models.Workflow{},
		Generate:  []*models.Workflow{},
	}

	for _, wf := range workflows {
		switch wf.Type {
		case models.WorkflowTypeTransform:
			result.Transform = append(result.Transform, wf)
		case models.WorkflowTypeValidate:
			result.Validate = append(result.Validate, wf)
		case models.WorkflowTypeGenerate:
			result.Generate = append(result.Generate, wf)
		}
	}

	SortByPriority(result.Transform)
	SortByPriority(result.Validate)
	SortByPriority(result.Generate)
	return result
}
