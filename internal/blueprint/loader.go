package blueprint

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pixil98/go-blueprints/internal/markup"
)

// LoadResult is the outcome of one batch load. Session identifies the load in
// logs and diagnostics; Repairs counts markup fixes across all source files.
type LoadResult struct {
	Session string
	Records []*Record
	Repairs int
}

// Parse repairs and parses the contents of a single source file into
// blueprint records. Duplicate detection across files happens in the caller.
func Parse(file, contents string) ([]*Record, int, error) {
	repaired, repairs, err := markup.Repair(file, contents)
	if err != nil {
		return nil, repairs, err
	}

	records, err := parseRecords(repaired)
	if err != nil {
		return nil, repairs, fmt.Errorf("parsing %s: %w", file, err)
	}
	return records, repairs, nil
}

// LoadDir loads every .xml file under path into a single record set. The load
// is all-or-nothing: any malformed source, parse failure, or duplicate ID
// aborts it.
func LoadDir(path string) (*LoadResult, error) {
	res := &LoadResult{Session: uuid.New().String()}
	seen := map[string]string{}

	err := filepath.Walk(path, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() || filepath.Ext(p) != ".xml" {
			return nil
		}

		contents, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		records, repairs, err := Parse(filepath.Base(p), string(contents))
		if err != nil {
			return err
		}
		res.Repairs += repairs

		for _, rec := range records {
			if prev, ok := seen[rec.ID]; ok {
				return &DuplicateBlueprintError{ID: rec.ID, File: prev}
			}
			seen[rec.ID] = filepath.Base(p)
			res.Records = append(res.Records, rec)
		}

		slog.Info("loaded blueprints", "session", res.Session, "file", filepath.Base(p), "count", len(records))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}
