// Package checklist carries build metadata for the checklist module.
package checklist

// Version is the module version. Release builds override it with
// -ldflags "-X github.com/mesh-intelligence/checklist/pkg/checklist.Version=...".
var Version = "0.1.0-dev"
