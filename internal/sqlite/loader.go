package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/checklist/pkg/types"
	"github.com/mesh-intelligence/checklist/pkg/watch"
)

// ImportStats counts what Import loaded and skipped.
type ImportStats struct {
	Projects int `json:"projects"`
	Steps    int `json:"steps"`
	Skipped  int `json:"skipped"`
}

// Import replaces the store contents with the records in dir. Loading is
// transactional: either every loadable record lands or the store is left
// unchanged. Malformed lines, records without a positive identity, and steps
// whose owner is not among the loaded projects are skipped. A missing
// steps.jsonl is treated as empty. A later line with an identity already
// loaded replaces the earlier one and counts as skipped.
func (b *Backend) Import(ctx context.Context, dir string) (ImportStats, error) {
	var stats ImportStats

	projectLines, skipped, err := readJSONL(filepath.Join(dir, ProjectsFile))
	if err != nil {
		return stats, err
	}
	stats.Skipped += skipped

	stepLines, skipped, err := readJSONL(filepath.Join(dir, StepsFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return stats, err
	}
	stats.Skipped += skipped

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return ImportStats{}, types.ErrStoreDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportStats{}, fmt.Errorf("beginning import transaction: %w", err)
	}
	defer tx.Rollback()

	// Steps may precede their projects in the files; check ownership at
	// commit instead of per statement.
	if _, err := tx.ExecContext(ctx, "PRAGMA defer_foreign_keys = ON"); err != nil {
		return ImportStats{}, fmt.Errorf("deferring foreign keys: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM steps"); err != nil {
		return ImportStats{}, fmt.Errorf("clearing steps: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM projects"); err != nil {
		return ImportStats{}, fmt.Errorf("clearing projects: %w", err)
	}

	r := newRecords(tx)
	for _, line := range projectLines {
		var p projectJSON
		if err := json.Unmarshal(line, &p); err != nil || p.ProjectID <= 0 {
			stats.Skipped++
			continue
		}
		if _, err := r.InsertProject(ctx, p.record()); err != nil {
			return ImportStats{}, fmt.Errorf("loading %s: %w", ProjectsFile, err)
		}
		stats.Projects++
	}

	for _, line := range stepLines {
		var s stepJSON
		if err := json.Unmarshal(line, &s); err != nil || s.StepID <= 0 {
			stats.Skipped++
			continue
		}
		if _, err := r.InsertStep(ctx, s.record()); err != nil {
			return ImportStats{}, fmt.Errorf("loading %s: %w", StepsFile, err)
		}
		stats.Steps++
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM steps WHERE projectOwnerId IS NULL OR projectOwnerId NOT IN (SELECT projectId FROM projects)")
	if err != nil {
		return ImportStats{}, fmt.Errorf("dropping orphaned steps: %w", err)
	}
	orphans := int(affected(res))

	// Lines sharing an identity collapse into one row; report rows, not lines.
	loadedProjects, loadedSteps := stats.Projects, stats.Steps-orphans
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&stats.Projects); err != nil {
		return ImportStats{}, fmt.Errorf("counting projects: %w", err)
	}
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM steps").Scan(&stats.Steps); err != nil {
		return ImportStats{}, fmt.Errorf("counting steps: %w", err)
	}
	stats.Skipped += orphans + (loadedProjects - stats.Projects) + (loadedSteps - stats.Steps)

	if err := tx.Commit(); err != nil {
		return ImportStats{}, fmt.Errorf("committing import transaction: %w", err)
	}

	b.hub.Publish(watch.TopicProjects, watch.TopicSteps)
	return stats, nil
}
