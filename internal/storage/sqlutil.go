package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Placeholder renders the i-th (1-based) SQL parameter for a dialect.
type Placeholder func(i int) string

// QuestionMark is the placeholder style shared by sqlite and mysql.
func QuestionMark(int) string { return "?" }

// AtP is the mssql placeholder style (@p1, @p2, ...).
func AtP(i int) string { return fmt.Sprintf("@p%d", i) }

// InsertBatch inserts rows into table inside one transaction using a
// prepared single-row INSERT. database/sql backends without a bulk-load
// primitive share this path; the transaction keeps throughput acceptable for
// run-result volumes.
func InsertBatch(ctx context.Context, db *sql.DB, table string, columns []string, rows [][]any, ph Placeholder) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = ph(i + 1)
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "),
	)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare insert %s: %w", table, err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("insert %s: row length %d != columns length %d", table, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("insert %s: %w", table, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("commit %s: %w", table, err)
	}
	return inserted, nil
}
