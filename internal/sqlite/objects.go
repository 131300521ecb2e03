package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/compound/pkg/types"
)

const selectObjects = "SELECT pid, COALESCE(label, ''), COALESCE(models, '[]'), COALESCE(created_at, ''), COALESCE(updated_at, '') FROM objects"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObject(row rowScanner) (*types.CompoundObject, error) {
	var obj types.CompoundObject
	var models string
	if err := row.Scan(&obj.PID, &obj.Label, &models, &obj.CreatedAt, &obj.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(models), &obj.Models); err != nil {
		return nil, fmt.Errorf("decoding models of %s: %w", obj.PID, err)
	}
	return &obj, nil
}

// Load returns the object with the given PID.
func (b *Backend) Load(ctx context.Context, pid string) (*types.CompoundObject, error) {
	if pid == "" {
		return nil, types.ErrInvalidID
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}

	obj, err := scanObject(b.db.QueryRowContext(ctx, selectObjects+" WHERE pid = ?", pid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, types.NewStoreError("load", pid, err)
	}
	return obj, nil
}

// Save creates or replaces an object. CreatedAt is kept from the stored
// row when the object already exists; UpdatedAt is set to now.
func (b *Backend) Save(ctx context.Context, obj *types.CompoundObject) error {
	if err := obj.Validate(); err != nil {
		return err
	}
	models := obj.Models
	if models == nil {
		models = []string{}
	}
	encoded, err := json.Marshal(models)
	if err != nil {
		return fmt.Errorf("encoding models: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return types.NewStoreError("save", obj.PID, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	var createdAt string
	err = tx.QueryRowContext(ctx, "SELECT COALESCE(created_at, '') FROM objects WHERE pid = ?", obj.PID).Scan(&createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		createdAt = obj.CreatedAt
	case err != nil:
		return types.NewStoreError("save", obj.PID, err)
	}
	if createdAt == "" {
		createdAt = now
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO objects (pid, label, models, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(pid) DO UPDATE SET label = excluded.label, models = excluded.models, updated_at = excluded.updated_at`,
		obj.PID, obj.Label, string(encoded), createdAt, now,
	)
	if err != nil {
		return types.NewStoreError("save", obj.PID, err)
	}
	if err := b.persistLocked(tx, objectsJSONL); err != nil {
		return types.NewStoreError("save", obj.PID, fmt.Errorf("persisting %s: %w", objectsJSONL, err))
	}
	if err := tx.Commit(); err != nil {
		return types.NewStoreError("save", obj.PID, err)
	}

	obj.CreatedAt, obj.UpdatedAt = createdAt, now
	return nil
}

// Delete removes an object together with its own triples and the triples
// relating other objects to it.
func (b *Backend) Delete(ctx context.Context, pid string) error {
	if pid == "" {
		return types.ErrInvalidID
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return types.NewStoreError("delete", pid, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM objects WHERE pid = ?", pid)
	if err != nil {
		return types.NewStoreError("delete", pid, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM triples WHERE subject = ? OR object = ? OR predicate = ?",
		pid, pid, types.SequencePredicate(pid),
	); err != nil {
		return types.NewStoreError("delete", pid, err)
	}
	if err := b.persistLocked(tx, objectsJSONL, triplesJSONL); err != nil {
		return types.NewStoreError("delete", pid, fmt.Errorf("persisting after delete: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return types.NewStoreError("delete", pid, err)
	}
	return nil
}

// List returns every object ordered by PID.
func (b *Backend) List(ctx context.Context) ([]*types.CompoundObject, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}

	rows, err := b.db.QueryContext(ctx, selectObjects+" ORDER BY pid")
	if err != nil {
		return nil, types.NewStoreError("list", "", err)
	}
	defer rows.Close()

	objects := []*types.CompoundObject{}
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, types.NewStoreError("list", "", err)
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStoreError("list", "", err)
	}
	return objects, nil
}
