// Package loader reads listing collections from disk leniently. A bad input
// file degrades to an empty collection with a warning; only the caller
// knows whether losing one side of the pair is fatal.
package loader

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Eiat5522/listings-reconciler/pkg/models"
)

// Loader reads listing collections
type Loader struct {
	logger ectologger.Logger
}

// New creates a new Loader
func New(logger ectologger.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadJSON reads a listing collection from a JSON file. The file may hold a
// bare array or an object with a "listings" array. Non-object entries are
// dropped and counted. A missing or malformed file returns an empty
// collection and a non-nil error so the caller can decide whether the run
// can proceed on one side alone.
func (l *Loader) LoadJSON(ctx context.Context, path string) ([]models.Listing, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.WithContext(ctx).WithError(err).Warnf("Could not read input file '%s', treating as empty", path)
		return nil, 0, fmt.Errorf("reading %s: %w", path, err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		l.logger.WithContext(ctx).WithError(err).Warnf("Input file '%s' is not valid JSON, treating as empty", path)
		return nil, 0, fmt.Errorf("parsing %s: %w", path, err)
	}

	entries, err := collectionEntries(raw)
	if err != nil {
		l.logger.WithContext(ctx).WithError(err).Warnf("Input file '%s' does not hold a listing collection, treating as empty", path)
		return nil, 0, fmt.Errorf("parsing %s: %w", path, err)
	}

	listings, dropped := Sanitize(entries)
	if dropped > 0 {
		l.logger.WithContext(ctx).WithFields(map[string]any{
			"path":    path,
			"dropped": dropped,
		}).Warn("Dropped non-object entries from input collection")
	}

	return listings, dropped, nil
}

// LoadCSV re-imports a population-template CSV: the first row names the
// columns, empty cells are treated as absent, and cells holding embedded
// JSON arrays or objects are decoded back into structured values.
func (l *Loader) LoadCSV(ctx context.Context, path string) ([]models.Listing, error) {
	file, err := os.Open(path)
	if err != nil {
		l.logger.WithContext(ctx).WithError(err).Warnf("Could not read input file '%s', treating as empty", path)
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		l.logger.WithContext(ctx).WithError(err).Warnf("Input file '%s' is not valid CSV, treating as empty", path)
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	listings := make([]models.Listing, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(models.Listing, len(header))
		for i, column := range header {
			if i >= len(row) || row[i] == "" {
				continue
			}
			record[column] = csvCellValue(row[i])
		}
		listings = append(listings, record)
	}

	return listings, nil
}

// csvCellValue reverses the writer's cell encoding: embedded JSON lists and
// objects decode back to structured values, everything else stays a string.
func csvCellValue(cell string) any {
	trimmed := strings.TrimSpace(cell)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded
		}
	}
	return cell
}

// Sanitize filters a raw decoded collection down to object records,
// returning the listings and the count of dropped entries.
func Sanitize(entries []any) ([]models.Listing, int) {
	listings := make([]models.Listing, 0, len(entries))
	dropped := 0
	for _, entry := range entries {
		record, ok := entry.(map[string]any)
		if !ok {
			dropped++
			continue
		}
		listings = append(listings, models.Listing(record))
	}
	return listings, dropped
}

// collectionEntries accepts either a bare JSON array or an object wrapping
// the array under "listings"
func collectionEntries(raw any) ([]any, error) {
	switch v := raw.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if entries, ok := v["listings"].([]any); ok {
			return entries, nil
		}
		return nil, fmt.Errorf("object has no \"listings\" array")
	default:
		return nil, fmt.Errorf("expected array, got %T", raw)
	}
}
