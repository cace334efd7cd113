// Package sqlite provides the public constructor for the SQLite class index.
// The implementation stays internal.
package sqlite

import (
	"github.com/mesh-intelligence/classreg/internal/sqlite"
	"github.com/mesh-intelligence/classreg/pkg/types"
)

// NewStore creates a new SQLite class index.
// The index is not attached; call Attach with a Config to open it.
//
// Example:
//
//	index := sqlite.NewStore()
//	err := index.Attach(types.Config{DataDir: ".classreg-db"})
//	defer index.Detach()
//	scan, err := index.Index(reg)
func NewStore() types.ClassIndex {
	return sqlite.NewStore()
}
