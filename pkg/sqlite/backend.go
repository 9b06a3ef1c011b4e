// Package sqlite exposes the SQLite record store while keeping its
// implementation internal.
package sqlite

import (
	"github.com/mesh-intelligence/checklist/internal/sqlite"
	"github.com/mesh-intelligence/checklist/pkg/types"
)

// NewBackend creates a detached SQLite record store. Call Attach before use.
//
// Example:
//
//	store := sqlite.NewBackend()
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".checklist-db",
//	})
//	defer store.Detach()
func NewBackend() types.RecordStore {
	return sqlite.NewBackend()
}
