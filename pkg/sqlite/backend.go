// Package sqlite exposes the SQLite storage backend while keeping its
// implementation internal.
package sqlite

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/compound/internal/sqlite"
	"github.com/mesh-intelligence/compound/pkg/types"
)

// NewBackend creates a detached SQLite backend. Attach it with a Config
// naming the data directory:
//
//	backend := sqlite.NewBackend(nil)
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".compound-db",
//	})
//	defer backend.Detach()
func NewBackend(log *zap.Logger) types.Backend {
	return sqlite.NewBackend(log)
}
