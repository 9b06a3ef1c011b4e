package types

// NewRecord converts a domain project to a record for insertion. The identity
// is dropped: new projects always receive a fresh identity from the store.
func (p Project) NewRecord() ProjectRecord {
	return ProjectRecord{
		Name:        p.Name,
		Description: p.Description,
		IsTemplate:  p.IsTemplate,
	}
}

// NewRecord converts a domain step to a record owned by projectID. The step
// identity is dropped.
func (s Step) NewRecord(projectID int64) StepRecord {
	return StepRecord{
		Name:           s.Name,
		Description:    s.Description,
		ProjectOwnerID: projectID,
	}
}

// NewStepRecords converts a list of domain steps to records owned by
// projectID, preserving order. Returns an empty slice, not nil.
func NewStepRecords(steps []Step, projectID int64) []StepRecord {
	out := make([]StepRecord, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.NewRecord(projectID))
	}
	return out
}

// ProjectFromRecord converts a stored project and its steps to the domain
// form, carrying every identity through.
func ProjectFromRecord(rec ProjectRecord, steps []StepRecord) Project {
	out := make([]Step, 0, len(steps))
	for _, s := range steps {
		out = append(out, StepFromRecord(s))
	}
	return Project{
		ProjectID:   rec.ProjectID,
		Name:        rec.Name,
		Description: rec.Description,
		IsTemplate:  rec.IsTemplate,
		Steps:       out,
	}
}

// StepFromRecord converts a stored step to the domain form.
func StepFromRecord(rec StepRecord) Step {
	return Step{
		StepID:      rec.StepID,
		Name:        rec.Name,
		Description: rec.Description,
	}
}

// HeaderFromRecord projects a template record to a header.
func HeaderFromRecord(rec ProjectRecord) ProjectHeader {
	return ProjectHeader{
		ProjectID: rec.ProjectID,
		Name:      rec.DisplayName(),
	}
}

// Domain converts the joined view to a domain project.
func (pw ProjectWithSteps) Domain() Project {
	return ProjectFromRecord(pw.Project, pw.Steps)
}
