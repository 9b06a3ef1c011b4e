package sqlite

import "github.com/mesh-intelligence/checklist/pkg/types"

// JSONL line formats for backups. Unknown fields are ignored on load so
// files written by later versions still import.

// projectJSON is one line of projects.jsonl.
type projectJSON struct {
	ProjectID   int64  `json:"project_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsTemplate  bool   `json:"is_template"`
}

// stepJSON is one line of steps.jsonl.
type stepJSON struct {
	StepID         int64  `json:"step_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	ProjectOwnerID int64  `json:"project_owner_id"`
}

func projectToJSON(rec types.ProjectRecord) projectJSON {
	return projectJSON{
		ProjectID:   rec.ProjectID,
		Name:        rec.Name,
		Description: rec.Description,
		IsTemplate:  rec.IsTemplate,
	}
}

func (p projectJSON) record() types.ProjectRecord {
	return types.ProjectRecord{
		ProjectID:   p.ProjectID,
		Name:        p.Name,
		Description: p.Description,
		IsTemplate:  p.IsTemplate,
	}
}

func stepToJSON(rec types.StepRecord) stepJSON {
	return stepJSON{
		StepID:         rec.StepID,
		Name:           rec.Name,
		Description:    rec.Description,
		ProjectOwnerID: rec.ProjectOwnerID,
	}
}

func (s stepJSON) record() types.StepRecord {
	return types.StepRecord{
		StepID:         s.StepID,
		Name:           s.Name,
		Description:    s.Description,
		ProjectOwnerID: s.ProjectOwnerID,
	}
}
