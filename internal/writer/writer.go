// Package writer renders the merged collection to its export formats
package writer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/Eiat5522/listings-reconciler/pkg/models"
	"github.com/Eiat5522/listings-reconciler/pkg/tracing"
)

// Writer writes merged listing collections to disk
type Writer struct {
	logger ectologger.Logger
}

// New creates a new Writer
func New(logger ectologger.Logger) *Writer {
	return &Writer{logger: logger}
}

// WriteJSON writes the collection as an indented JSON array
func (w *Writer) WriteJSON(ctx context.Context, path string, listings []models.Listing) error {
	ctx, span := tracing.StartSpan(ctx, "writer.Writer.WriteJSON")
	defer span.End()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing merged listings: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	w.logger.WithContext(ctx).WithFields(map[string]any{
		"path":  path,
		"count": len(listings),
	}).Info("Wrote merged listings JSON")
	return nil
}

// canonicalColumns lead the CSV so human reviewers see identity fields
// first; everything else follows alphabetically.
var canonicalColumns = []string{
	models.FieldID,
	models.FieldName,
	models.FieldCity,
	models.FieldCategory,
	models.FieldAddress,
}

// WriteCSV writes the collection as a population template: one column per
// field name in the union of all records, with list and object values
// embedded as JSON strings.
func (w *Writer) WriteCSV(ctx context.Context, path string, listings []models.Listing) error {
	ctx, span := tracing.StartSpan(ctx, "writer.Writer.WriteCSV")
	defer span.End()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory for %s: %w", path, err)
	}

	columns := columnUnion(listings)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	row := make([]string, len(columns))
	for _, listing := range listings {
		for i, column := range columns {
			row[i] = cellValue(listing[column])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}

	w.logger.WithContext(ctx).WithFields(map[string]any{
		"path":    path,
		"count":   len(listings),
		"columns": len(columns),
	}).Info("Wrote merged listings CSV")
	return nil
}

func columnUnion(listings []models.Listing) []string {
	canonical := make(map[string]bool, len(canonicalColumns))
	for _, c := range canonicalColumns {
		canonical[c] = true
	}

	seen := make(map[string]bool)
	for _, listing := range listings {
		for field := range listing {
			if !canonical[field] {
				seen[field] = true
			}
		}
	}

	extra := make([]string, 0, len(seen))
	for field := range seen {
		extra = append(extra, field)
	}
	sort.Strings(extra)

	return append(append([]string{}, canonicalColumns...), extra...)
}

func cellValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any, []string, map[string]any:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}
