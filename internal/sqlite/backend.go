// Package sqlite implements the SQLite storage backend. Objects and
// relationship triples are queried through SQLite and persisted to JSONL
// files in the data directory, which remain the source of truth: the
// database is rebuilt from them on every Attach.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/compound/pkg/types"
)

const dbFile = "compound.db"

var _ types.Backend = (*Backend)(nil)

// Backend serves types.Store and types.ObjectWriter from SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
	log      *zap.Logger

	syncStrategy string
	dirty        map[string]bool // JSONL files awaiting persist under on_close
}

// NewBackend creates a detached backend. A nil logger discards output.
func NewBackend(log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{log: log, dirty: make(map[string]bool)}
}

// Attach creates the data directory if needed, builds a fresh database and
// loads the JSONL files into it.
func (b *Backend) Attach(cfg types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return err
	}
	if err := initJSONLFiles(dataDir); err != nil {
		db.Close()
		return err
	}
	if err := loadAllJSONL(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = cfg
	b.dataDir = dataDir
	b.syncStrategy = cfg.EffectiveSyncStrategy()
	b.dirty = make(map[string]bool)
	b.attached = true

	b.log.Debug("sqlite backend attached",
		zap.String("data_dir", dataDir),
		zap.String("sync", b.syncStrategy))
	return nil
}

// Detach writes pending JSONL files and closes the database. It is
// idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.flushLocked(); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}
	if err := b.db.Close(); err != nil {
		return err
	}
	b.db = nil
	b.attached = false
	b.log.Debug("sqlite backend detached", zap.String("data_dir", b.dataDir))
	return nil
}

// persistLocked writes the named JSONL files from q now, or marks them for
// Detach under the on_close strategy. Writers pass their open transaction
// and commit only after the files are written, so a failed write rolls the
// change back. The caller must hold b.mu.
func (b *Backend) persistLocked(q queryer, files ...string) error {
	if b.syncStrategy == types.SyncOnClose {
		for _, f := range files {
			b.dirty[f] = true
		}
		return nil
	}
	for _, f := range files {
		if err := b.writeFile(q, f); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) flushLocked() error {
	for _, f := range []string{objectsJSONL, triplesJSONL} {
		if !b.dirty[f] {
			continue
		}
		if err := b.writeFile(b.db, f); err != nil {
			return err
		}
		delete(b.dirty, f)
	}
	return nil
}

func (b *Backend) writeFile(q queryer, name string) error {
	switch name {
	case objectsJSONL:
		return persistObjectsJSONL(q, b.dataDir)
	case triplesJSONL:
		return persistTriplesJSONL(q, b.dataDir)
	default:
		return fmt.Errorf("unknown JSONL file %s", name)
	}
}
