package types

import "errors"

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("record store is detached")
	ErrAlreadyAttached = errors.New("record store is already attached")
	ErrSchemaVersion   = errors.New("unsupported schema version")
)

// Record operation errors.
var (
	// ErrNotFound is returned by operations that need an existing row to
	// proceed. Point lookups report absence with a false flag instead.
	ErrNotFound = errors.New("record not found")

	// ErrConstraint wraps referential-integrity violations, such as a step
	// whose owner project does not exist. It signals a programming or data
	// integrity error, not a user-recoverable condition.
	ErrConstraint = errors.New("constraint violation")

	ErrInvalidID   = errors.New("invalid record ID")
	ErrInvalidName = errors.New("invalid name")
)
