package types

import "context"

// ObjectRepository loads repository objects by identifier.
type ObjectRepository interface {
	// Load returns the object with the given PID, or ErrNotFound.
	Load(ctx context.Context, pid string) (*CompoundObject, error)
}

// RelationshipStore reads and writes relationship triples. Implementations
// wrap backend failures in *StoreError.
type RelationshipStore interface {
	// Get returns the triples of subject with the given namespace and predicate.
	Get(ctx context.Context, subject, namespace, predicate string) ([]Triple, error)

	// Find returns the triples with the given namespace, predicate and object
	// value, across all subjects.
	Find(ctx context.Context, namespace, predicate, object string) ([]Triple, error)

	// Commit applies changes atomically: all of them take effect or none do.
	// Adding an existing triple and removing a missing one are no-ops.
	Commit(ctx context.Context, changes []Change) error
}

// Store is a backend serving both collaborator interfaces.
type Store interface {
	ObjectRepository
	RelationshipStore
}

// ObjectWriter persists and deletes repository objects. It is used by hosts
// that administer objects; the engine itself never writes objects.
type ObjectWriter interface {
	Save(ctx context.Context, obj *CompoundObject) error
	Delete(ctx context.Context, pid string) error
	List(ctx context.Context) ([]*CompoundObject, error)
}

// Backend is an attachable storage backend. Attach opens it for the given
// Config; Detach releases it and persists pending writes.
type Backend interface {
	Store
	ObjectWriter
	Attach(cfg Config) error
	Detach() error
}
