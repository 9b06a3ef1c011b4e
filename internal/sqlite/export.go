package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/checklist/pkg/types"
)

// ExportStats counts what Export wrote.
type ExportStats struct {
	Projects int `json:"projects"`
	Steps    int `json:"steps"`
}

// Export writes every project and step to projects.jsonl and steps.jsonl in
// dir, ascending by identity. Both files come from one read transaction.
func (b *Backend) Export(ctx context.Context, dir string) (ExportStats, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ExportStats{}, fmt.Errorf("creating export directory: %w", err)
	}

	var projects []projectJSON
	var steps []stepJSON
	err := b.snapshot(ctx, func(r *records) error {
		ps, err := r.queryProjects(ctx, "SELECT "+projectColumns+" FROM projects ORDER BY projectId ASC")
		if err != nil {
			return err
		}
		ss, err := r.querySteps(ctx, "SELECT "+stepColumns+" FROM steps ORDER BY stepId ASC")
		if err != nil {
			return err
		}
		projects = make([]projectJSON, 0, len(ps))
		for _, p := range ps {
			projects = append(projects, projectToJSON(p))
		}
		steps = make([]stepJSON, 0, len(ss))
		for _, s := range ss {
			steps = append(steps, stepToJSON(s))
		}
		return nil
	})
	if err != nil {
		return ExportStats{}, err
	}

	if err := writeJSONL(filepath.Join(dir, ProjectsFile), projects); err != nil {
		return ExportStats{}, fmt.Errorf("writing %s: %w", ProjectsFile, err)
	}
	if err := writeJSONL(filepath.Join(dir, StepsFile), steps); err != nil {
		return ExportStats{}, fmt.Errorf("writing %s: %w", StepsFile, err)
	}
	return ExportStats{Projects: len(projects), Steps: len(steps)}, nil
}

// snapshot runs fn in a transaction that is always rolled back.
func (b *Backend) snapshot(ctx context.Context, fn func(r *records) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning read transaction: %w", err)
	}
	defer tx.Rollback()
	return fn(newRecords(tx))
}
