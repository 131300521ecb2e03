package sqlite

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesh-intelligence/compound/pkg/types"
)

func TestReadJSONL_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "objects.jsonl")
	content := strings.Join([]string{
		`{"pid":"A"}`,
		``,
		`{"pid":`,
		`not json`,
		`{"pid":"B"}`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := readJSONL(path)
	if err != nil {
		t.Fatalf("readJSONL failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestWriteJSONL_ReplacesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "triples.jsonl")
	if err := os.WriteFile(path, []byte("{\"old\":true}\n{\"old\":true}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := writeJSONL(path, []json.RawMessage{json.RawMessage(`{"new":true}`)}); err != nil {
		t.Fatalf("writeJSONL failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{\"new\":true}\n" {
		t.Errorf("unexpected file content %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestLoad_ToleratesBadRecords(t *testing.T) {
	dir := t.TempDir()
	objects := strings.Join([]string{
		`{"pid":"P:1","label":"Book","models":["islandora:compoundCModel"],"future_field":42}`,
		`{"label":"no pid"}`,
		`{"pid":"P:1","label":"duplicate"}`,
		`{"pid":"A"}`,
	}, "\n")
	triples := strings.Join([]string{
		`{"triple_id":"t1","subject":"A","namespace":"info:fedora/fedora-system:def/relations-external#","predicate":"isConstituentOf","object":"P:1","value_type":"uri"}`,
		`{"triple_id":"t2","subject":"A","namespace":"info:fedora/fedora-system:def/relations-external#","predicate":"isConstituentOf","object":"P:1"}`,
		`{"subject":"A","predicate":"broken"}`,
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, objectsJSONL), []byte(objects), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, triplesJSONL), []byte(triples), 0o644); err != nil {
		t.Fatal(err)
	}

	b := attach(t, dir, "")
	ctx := context.Background()

	list, err := b.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := types.PIDs(list); len(got) != 2 || got[0] != "A" || got[1] != "P:1" {
		t.Fatalf("unexpected objects %v", got)
	}
	book, err := b.Load(ctx, "P:1")
	if err != nil {
		t.Fatal(err)
	}
	if book.Label != "Book" || !book.IsCompound() {
		t.Errorf("first record should win, got %+v", book)
	}

	members, err := b.Find(ctx, types.RelsExtNamespace, types.DefaultMembershipPredicate, "P:1")
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 1 || members[0].TripleID != "t1" {
		t.Errorf("expected only t1, got %+v", members)
	}
}
