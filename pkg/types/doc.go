// Package types defines the record and domain types, the RecordStore and
// Settings interfaces, and the standard errors for the checklist storage
// layer.
//
// Records are the stored shapes (ProjectRecord, StepRecord). Domain objects
// (Project, Step, ProjectHeader) are what callers render and edit; the
// mapper functions in mapper.go convert between the two.
package types
