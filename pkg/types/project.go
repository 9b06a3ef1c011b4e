package types

import "strings"

// TemplateSuffix is the marker older data appended to template names. New
// templates never carry it; the template flag alone categorizes a row.
const TemplateSuffix = " (Template)"

// ProjectRecord is the stored shape of a project row. A zero ProjectID means
// the record has not been persisted yet.
type ProjectRecord struct {
	ProjectID   int64  `json:"project_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsTemplate  bool   `json:"is_template"`
}

// StepRecord is the stored shape of a step row. ProjectOwnerID must reference
// an existing project; deleting that project deletes the step.
type StepRecord struct {
	StepID         int64  `json:"step_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	ProjectOwnerID int64  `json:"project_owner_id"`
}

// ProjectWithSteps is the joined view of one project and its steps, steps in
// ascending identity order.
type ProjectWithSteps struct {
	Project ProjectRecord `json:"project"`
	Steps   []StepRecord  `json:"steps"`
}

// Project is the domain form of a project used by controllers and adapters.
type Project struct {
	ProjectID   int64  `json:"project_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsTemplate  bool   `json:"is_template"`
	Steps       []Step `json:"steps"`
}

// Step is the domain form of a checklist item. Ownership is contextual: the
// owning project is supplied when the step is converted to a record.
type Step struct {
	StepID      int64  `json:"step_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProjectHeader is a read-only projection of a template for listings.
type ProjectHeader struct {
	ProjectID int64  `json:"project_id"`
	Name      string `json:"name"`
}

// Label renders the header name with a separate template badge.
func (h ProjectHeader) Label() string {
	return h.Name + TemplateSuffix
}

// DisplayName returns the presentation name of a project. Template names
// have a legacy " (Template)" suffix trimmed; the stored name is unchanged.
func (p ProjectRecord) DisplayName() string {
	if p.IsTemplate {
		return strings.TrimSuffix(p.Name, TemplateSuffix)
	}
	return p.Name
}
