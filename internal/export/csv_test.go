package export

import (
	"compress/gzip"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func TestFilterUniquePreservesOrderAndDrops(t *testing.T) {
	records := []map[string]any{
		{"id": "1", "name": "a"},
		{"id": "2", "name": "b"},
		{"id": "1", "name": "a-dup"},
	}
	out := FilterUnique(records, []string{"id"})
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2", len(out))
	}
	if out[0]["id"] != "1" || out[1]["id"] != "2" {
		t.Fatalf("got %#v", out)
	}
}

func TestExportWritesTabDelimitedGzippedCSV(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Filename: "campaigns",
		Fields:   []string{"id", "name"},
		UniqueOn: []string{"id"},
	}
	records := []map[string]any{
		{"id": "1", "name": "spring"},
		{"id": "1", "name": "spring-dup"},
		{"id": "2", "name": "summer"},
	}

	path, err := Export(cfg, dir, records)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("got %q, want a file under %q", path, dir)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer gz.Close()

	r := csv.NewReader(gz)
	r.Comma = '\t'
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows (incl. header), want 3", len(rows))
	}
	if rows[0][0] != "id" || rows[0][1] != "name" {
		t.Fatalf("got header %#v", rows[0])
	}
	if rows[1][0] != "1" || rows[1][1] != "spring" {
		t.Fatalf("got %#v", rows[1])
	}
	if rows[2][0] != "2" {
		t.Fatalf("got %#v", rows[2])
	}
}

func TestOutputBaseDirIsDatePartitioned(t *testing.T) {
	got := OutputBaseDir("/tmp")
	if filepath.Dir(got) != "/tmp" {
		t.Fatalf("got %q", got)
	}
	if len(filepath.Base(got)) != 8 {
		t.Fatalf("expected an 8-digit yyyymmdd partition, got %q", filepath.Base(got))
	}
}
