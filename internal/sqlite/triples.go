package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/compound/pkg/types"
)

const selectTriples = "SELECT triple_id, subject, namespace, predicate, object, COALESCE(value_type, '') FROM triples"

func newTripleID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Get returns the triples of subject with the given namespace and
// predicate, oldest first.
func (b *Backend) Get(ctx context.Context, subject, namespace, predicate string) ([]types.Triple, error) {
	if subject == "" {
		return nil, types.ErrInvalidID
	}
	triples, err := b.queryTriples(ctx,
		selectTriples+" WHERE subject = ? AND namespace = ? AND predicate = ? ORDER BY created_at, triple_id",
		subject, namespace, predicate)
	if err != nil {
		return nil, types.NewStoreError("get", subject, err)
	}
	return triples, nil
}

// Find returns the triples with the given namespace, predicate and object
// value, ordered by subject.
func (b *Backend) Find(ctx context.Context, namespace, predicate, object string) ([]types.Triple, error) {
	if object == "" {
		return nil, types.ErrInvalidID
	}
	triples, err := b.queryTriples(ctx,
		selectTriples+" WHERE namespace = ? AND predicate = ? AND object = ? ORDER BY subject, triple_id",
		namespace, predicate, object)
	if err != nil {
		return nil, types.NewStoreError("find", object, err)
	}
	return triples, nil
}

func (b *Backend) queryTriples(ctx context.Context, query string, args ...any) ([]types.Triple, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triples []types.Triple
	for rows.Next() {
		var t types.Triple
		if err := rows.Scan(&t.TripleID, &t.Subject, &t.Namespace, &t.Predicate, &t.Object, &t.ValueType); err != nil {
			return nil, err
		}
		triples = append(triples, t)
	}
	return triples, rows.Err()
}

// Commit applies changes in one transaction. Adding an existing triple and
// removing a missing one are no-ops. A remove with an empty Object deletes
// every value of the predicate on the subject.
func (b *Backend) Commit(ctx context.Context, changes []types.Change) error {
	for _, c := range changes {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if len(changes) == 0 {
		return nil
	}
	subject := changes[0].Triple.Subject

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return types.NewStoreError("commit", subject, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, c := range changes {
		t := c.Triple
		switch c.Op {
		case types.OpAdd:
			_, err = tx.ExecContext(ctx,
				`INSERT INTO triples (triple_id, subject, namespace, predicate, object, value_type, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT(subject, namespace, predicate, object) DO NOTHING`,
				newTripleID(), t.Subject, t.Namespace, t.Predicate, t.Object, t.ValueType, now)
		case types.OpRemove:
			if t.Object == "" {
				_, err = tx.ExecContext(ctx,
					"DELETE FROM triples WHERE subject = ? AND namespace = ? AND predicate = ?",
					t.Subject, t.Namespace, t.Predicate)
			} else {
				_, err = tx.ExecContext(ctx,
					"DELETE FROM triples WHERE subject = ? AND namespace = ? AND predicate = ? AND object = ?",
					t.Subject, t.Namespace, t.Predicate, t.Object)
			}
		}
		if err != nil {
			return types.NewStoreError("commit", t.Subject, err)
		}
	}
	if err := b.persistLocked(tx, triplesJSONL); err != nil {
		return types.NewStoreError("commit", subject, fmt.Errorf("persisting %s: %w", triplesJSONL, err))
	}
	if err := tx.Commit(); err != nil {
		return types.NewStoreError("commit", subject, err)
	}
	return nil
}
