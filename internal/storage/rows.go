package storage

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/importer"
)

// Result tables share a layout across backends; only DDL types and
// placeholder syntax differ. Rows are produced here, positionally aligned to
// these column lists, so each backend only implements the write.
var (
	ShelfColumns = []string{"run_job", "shelf_id", "name"}

	RecordColumns = []string{
		"run_job", "record_id", "shelf_id", "kind", "name", "grower", "brand",
		"thc", "terpenes", "price", "strain_type", "sold_out", "last_jar",
		"low_stock", "notes",
	}

	SkipColumns = []string{"run_job", "row_index", "reason", "row_json"}
)

// ShelfRows flattens the run's created shelves.
func ShelfRows(job string, res *importer.RunResult) [][]any {
	rows := make([][]any, 0, len(res.CreatedShelves))
	for _, s := range res.CreatedShelves {
		rows = append(rows, []any{job, s.ID, s.Name})
	}
	return rows
}

// RecordRows flattens every record in the run, ordered by shelf id so the
// output is deterministic.
func RecordRows(job string, res *importer.RunResult) ([][]any, error) {
	shelfIDs := make([]string, 0, len(res.ShelfAssignments))
	for id := range res.ShelfAssignments {
		shelfIDs = append(shelfIDs, id)
	}
	sort.Strings(shelfIDs)

	var rows [][]any
	for _, shelfID := range shelfIDs {
		for _, rec := range res.ShelfAssignments[shelfID] {
			switch r := rec.(type) {
			case *importer.Strain:
				rows = append(rows, []any{
					job, r.ID, shelfID, "strain", r.Name, r.Grower, nil,
					numeric(r.THC), numeric(r.Terpenes), nil, r.Type,
					r.SoldOut, r.LastJar, false, r.Notes,
				})
			case *importer.Product:
				rows = append(rows, []any{
					job, r.ID, shelfID, "product", r.Name, nil, r.Brand,
					numeric(r.THC), numeric(r.Terpenes), r.Price, r.Type,
					r.SoldOut, false, r.LowStock, r.Notes,
				})
			default:
				return nil, fmt.Errorf("storage: unknown record variant %T", rec)
			}
		}
	}
	return rows, nil
}

// SkipRows flattens the skipped-row diagnostics; the raw row is kept as JSON
// for drill-down.
func SkipRows(job string, res *importer.RunResult) ([][]any, error) {
	rows := make([][]any, 0, len(res.SkippedRows))
	for _, s := range res.SkippedRows {
		raw, err := json.Marshal(s.RowData)
		if err != nil {
			return nil, fmt.Errorf("storage: marshal skipped row %d: %w", s.RowIndex, err)
		}
		rows = append(rows, []any{job, s.RowIndex, s.Reason, string(raw)})
	}
	return rows, nil
}

// numeric converts a nullable float into a driver-friendly value.
func numeric(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
