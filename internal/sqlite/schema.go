package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/checklist/pkg/types"
)

// schemaVersion is stored in PRAGMA user_version. There are no migrations;
// a database written by a newer version is refused.
const schemaVersion = 1

const (
	createProjects = `CREATE TABLE IF NOT EXISTS projects (
    projectId INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT,
    description TEXT,
    isTemplate INTEGER DEFAULT 0
);`

	createSteps = `CREATE TABLE IF NOT EXISTS steps (
    stepId INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT,
    description TEXT,
    projectOwnerId INTEGER,
    FOREIGN KEY(projectOwnerId) REFERENCES projects(projectId) ON DELETE CASCADE
);`

	createStepsOwnerIndex = `CREATE INDEX IF NOT EXISTS idx_steps_owner ON steps(projectOwnerId);`
)

var schemaStatements = []string{
	createProjects,
	createSteps,
	createStepsOwnerIndex,
}

// migrate creates the schema when missing and stamps the schema version.
func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d: %w", version, types.ErrSchemaVersion)
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	if version < schemaVersion {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("writing schema version: %w", err)
		}
	}
	return nil
}
