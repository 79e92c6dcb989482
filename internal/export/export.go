// Package export persists scraped records as JSON files and merges them into
// a single dataset.
package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cellscraper/internal/record"
	"cellscraper/logger"
	"cellscraper/pkg/errors"
)

const jsonIndent = "    "

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFilename replaces characters that are unsafe in filenames with
// underscores.
func SanitizeFilename(name string) string {
	return invalidFilenameChars.ReplaceAllString(name, "_")
}

// Exporter writes per-record JSON files into a single output directory.
type Exporter struct {
	dir string
	log *logger.Logger
}

// NewExporter builds an exporter rooted at dir. The directory is created on
// the first write.
func NewExporter(dir string) *Exporter {
	return &Exporter{
		dir: dir,
		log: logger.ForExporter(),
	}
}

// RecordPath returns the file path a record of the given name is saved to.
func (e *Exporter) RecordPath(name string) string {
	return filepath.Join(e.dir, SanitizeFilename(name+".json"))
}

// RecordExists reports whether a record of the given name was already saved.
func (e *Exporter) RecordExists(name string) bool {
	_, err := os.Stat(e.RecordPath(name))
	return err == nil
}

// SaveRecord writes the record as a single-entry {name: record} document.
func (e *Exporter) SaveRecord(name string, rec record.Record) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return errors.NewExport("save", "failed to create output directory", err)
	}

	data, err := json.MarshalIndent(map[string]record.Record{name: rec}, "", jsonIndent)
	if err != nil {
		return errors.NewExport("save", "failed to encode record", err)
	}
	if err := os.WriteFile(e.RecordPath(name), data, 0o644); err != nil {
		return errors.NewExport("save", "failed to write record file", err)
	}
	return nil
}

// Merge overlays every .json file in the output directory into one
// {name: record} document at outputFile and returns the merged record count.
// Collisions between files are resolved by directory iteration order.
func (e *Exporter) Merge(outputFile string) (int, error) {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		return 0, errors.NewExport("merge", "failed to read output directory", err)
	}

	merged := make(map[string]json.RawMessage)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(e.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, errors.NewExport("merge", "failed to read record file", err)
		}

		var doc map[string]json.RawMessage
		if err := json.Unmarshal(data, &doc); err != nil {
			e.log.Warn().Str("file", entry.Name()).Err(err).Msg("Skipping unreadable record file")
			continue
		}
		for name, rec := range doc {
			merged[name] = rec
		}
	}

	data, err := json.MarshalIndent(merged, "", jsonIndent)
	if err != nil {
		return 0, errors.NewExport("merge", "failed to encode merged dataset", err)
	}
	if err := os.WriteFile(outputFile, data, 0o644); err != nil {
		return 0, errors.NewExport("merge", "failed to write merged dataset", err)
	}
	return len(merged), nil
}

// SaveLinks writes the link index as a flat ordered {name: url} document.
func SaveLinks(path string, ix *record.LinkIndex) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NewExport("links", "failed to create links directory", err)
		}
	}
	data, err := json.MarshalIndent(ix, "", jsonIndent)
	if err != nil {
		return errors.NewExport("links", "failed to encode link index", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewExport("links", "failed to write link index", err)
	}
	return nil
}

// LoadLinks reads a link index saved by SaveLinks, preserving entry order.
func LoadLinks(path string) (*record.LinkIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewExport("links", "failed to read link index", err)
	}
	ix := record.NewLinkIndex()
	if err := json.Unmarshal(data, ix); err != nil {
		return nil, errors.NewExport("links", "failed to decode link index", err)
	}
	return ix, nil
}

// LoadDataset reads a merged dataset into mutable form. Used by the price
// refresh, which rewrites single fields in place.
func LoadDataset(path string) (map[string]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewExport("dataset", "failed to read merged dataset", err)
	}
	var dataset map[string]map[string]any
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, errors.NewExport("dataset", "failed to decode merged dataset", err)
	}
	return dataset, nil
}

// SaveDataset writes a dataset loaded with LoadDataset back to disk.
func SaveDataset(path string, dataset map[string]map[string]any) error {
	data, err := json.MarshalIndent(dataset, "", jsonIndent)
	if err != nil {
		return errors.NewExport("dataset", "failed to encode merged dataset", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewExport("dataset", "failed to write merged dataset", err)
	}
	return nil
}
