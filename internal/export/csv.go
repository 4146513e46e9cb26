// Package export implements the gzip+CSV file writer the spec lists as an
// out-of-core collaborator ("File exporters (CSV/gzip writers)"): it
// streams already-serialized records to a tab-delimited, gzip-compressed
// CSV file, deduplicating on a configured key set along the way.
package export

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config describes one export target: the column order to write, the
// fields that determine row uniqueness, and the output file's base name.
type Config struct {
	Filename string
	Fields   []string
	UniqueOn []string
}

// FilterUnique drops records already seen under the UniqueOn key tuple,
// preserving input order — the same semantics as the original's
// `filter_unique_records` generator.
func FilterUnique(records []map[string]any, uniqueOn []string) []map[string]any {
	seen := make(map[string]struct{}, len(records))
	out := make([]map[string]any, 0, len(records))
	for _, record := range records {
		key := uniqueToken(record, uniqueOn)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, record)
	}
	return out
}

func uniqueToken(record map[string]any, uniqueOn []string) string {
	token := ""
	for _, key := range uniqueOn {
		token += fmt.Sprintf("\x1f%v", record[key])
	}
	return token
}

// Export writes records to a new tab-delimited, gzip-compressed CSV file
// under outputDir, deduplicated per cfg.UniqueOn, and returns the file
// path written.
func Export(cfg Config, outputDir string, records []map[string]any) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("export: create output dir: %w", err)
	}

	filePath := filepath.Join(outputDir, fmt.Sprintf("%s_%d.csv.gz", cfg.Filename, time.Now().UnixMilli()))
	f, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("export: create %s: %w", filePath, err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()

	w := csv.NewWriter(gz)
	w.Comma = '\t'
	defer w.Flush()

	if err := w.Write(cfg.Fields); err != nil {
		return "", fmt.Errorf("export: write header: %w", err)
	}

	for _, record := range FilterUnique(records, cfg.UniqueOn) {
		row := make([]string, len(cfg.Fields))
		for i, field := range cfg.Fields {
			if v, ok := record[field]; ok && v != nil {
				row[i] = fmt.Sprintf("%v", v)
			}
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("export: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("export: flush: %w", err)
	}
	return filePath, nil
}

// OutputBaseDir mirrors the original's date-partitioned `/tmp/<yyyymmdd>`
// convention.
func OutputBaseDir(base string) string {
	return filepath.Join(base, time.Now().Format("20060102"))
}
