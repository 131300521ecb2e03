package sqlite

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// JSONL files in the data directory.
const (
	objectsJSONL = "objects.jsonl"
	triplesJSONL = "triples.jsonl"
)

var jsonlFiles = []string{objectsJSONL, triplesJSONL}

// queryer is satisfied by *sql.DB and *sql.Tx, so a file can be written
// from a transaction before it commits.
type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// initJSONLFiles creates any missing JSONL file as an empty file.
func initJSONLFiles(dataDir string) error {
	for _, name := range jsonlFiles {
		path := filepath.Join(dataDir, name)
		_, err := os.Stat(path)
		if err == nil {
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", name, err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return fmt.Errorf("creating %s: %w", name, err)
		}
	}
	return nil
}

// readJSONL returns each non-empty, well-formed line of path. Malformed
// lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		records = append(records, json.RawMessage(append([]byte(nil), line...)))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL replaces path with records, one per line, through a synced
// temp file and rename.
func writeJSONL(path string, records []json.RawMessage) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func persistObjectsJSONL(q queryer, dataDir string) error {
	rows, err := q.Query(selectObjects + " ORDER BY pid")
	if err != nil {
		return fmt.Errorf("reading objects for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return fmt.Errorf("scanning object for JSONL: %w", err)
		}
		rec, err := json.Marshal(objectJSON{
			PID:       obj.PID,
			Label:     obj.Label,
			Models:    obj.Models,
			CreatedAt: obj.CreatedAt,
			UpdatedAt: obj.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("encoding object %s: %w", obj.PID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(dataDir, objectsJSONL), records)
}

func persistTriplesJSONL(q queryer, dataDir string) error {
	rows, err := q.Query(
		"SELECT triple_id, subject, namespace, predicate, object, COALESCE(value_type, ''), COALESCE(created_at, '') FROM triples ORDER BY created_at, triple_id",
	)
	if err != nil {
		return fmt.Errorf("reading triples for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var t tripleJSON
		if err := rows.Scan(&t.TripleID, &t.Subject, &t.Namespace, &t.Predicate, &t.Object, &t.ValueType, &t.CreatedAt); err != nil {
			return fmt.Errorf("scanning triple for JSONL: %w", err)
		}
		rec, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encoding triple %s: %w", t.TripleID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(dataDir, triplesJSONL), records)
}
