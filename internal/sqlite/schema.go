package sqlite

import (
	"database/sql"
	"fmt"
	"slices"
)

// Schema DDL. Nullable columns tolerate JSONL records missing optional
// fields; reads coalesce them.
const (
	createObjects = `CREATE TABLE objects (
    pid TEXT PRIMARY KEY NOT NULL,
    label TEXT,
    models TEXT,
    created_at TEXT,
    updated_at TEXT
);`

	createTriples = `CREATE TABLE triples (
    triple_id TEXT PRIMARY KEY NOT NULL,
    subject TEXT NOT NULL,
    namespace TEXT NOT NULL,
    predicate TEXT NOT NULL,
    object TEXT NOT NULL,
    value_type TEXT,
    created_at TEXT
);`
)

// Index DDL for the relationship lookups.
const (
	idxTriplesUnique  = `CREATE UNIQUE INDEX idx_triples_unique ON triples(subject, namespace, predicate, object);`
	idxTriplesSubject = `CREATE INDEX idx_triples_subject ON triples(subject, namespace, predicate);`
	idxTriplesObject  = `CREATE INDEX idx_triples_object ON triples(namespace, predicate, object);`
)

var schemaDDL = []string{
	createObjects,
	createTriples,
}

var indexDDL = []string{
	idxTriplesUnique,
	idxTriplesSubject,
	idxTriplesObject,
}

func createSchema(db *sql.DB) error {
	for _, stmt := range slices.Concat(schemaDDL, indexDDL) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
