// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the modernc.org driver (no cgo). It is the default sink
// for app-local persistence of import runs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/importer"
	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/storage"
)

// newRepository is a test hook pointing at NewRepository by default.
var newRepository = NewRepository

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return newRepository(ctx, cfg)
	})
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	prefix string
}

// NewRepository opens a SQLite database. The DSN is passed straight to
// database/sql, e.g. "menu.db" or "file:menu.db?cache=shared".
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys = ON;")

	return &Repository{db: db, prefix: cfg.TablePrefix}, nil
}

// EnsureSchema creates the three result tables when absent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %sshelves (
			run_job  TEXT NOT NULL,
			shelf_id TEXT NOT NULL,
			name     TEXT NOT NULL,
			PRIMARY KEY (run_job, shelf_id)
		)`, r.prefix),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %srecords (
			run_job     TEXT NOT NULL,
			record_id   TEXT NOT NULL,
			shelf_id    TEXT NOT NULL,
			kind        TEXT NOT NULL,
			name        TEXT NOT NULL,
			grower      TEXT,
			brand       TEXT,
			thc         REAL,
			terpenes    REAL,
			price       REAL,
			strain_type TEXT,
			sold_out    INTEGER NOT NULL DEFAULT 0,
			last_jar    INTEGER NOT NULL DEFAULT 0,
			low_stock   INTEGER NOT NULL DEFAULT 0,
			notes       TEXT,
			PRIMARY KEY (run_job, record_id)
		)`, r.prefix),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %sskipped_rows (
			run_job   TEXT NOT NULL,
			row_index INTEGER NOT NULL,
			reason    TEXT NOT NULL,
			row_json  TEXT NOT NULL
		)`, r.prefix),
	}
	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("sqlite: ensure schema: %w", err)
		}
	}
	return nil
}

// SaveRun persists one run result.
func (r *Repository) SaveRun(ctx context.Context, job string, res *importer.RunResult) error {
	recordRows, err := storage.RecordRows(job, res)
	if err != nil {
		return err
	}
	skipRows, err := storage.SkipRows(job, res)
	if err != nil {
		return err
	}

	if _, err := storage.InsertBatch(ctx, r.db, r.prefix+"shelves", storage.ShelfColumns, storage.ShelfRows(job, res), storage.QuestionMark); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if _, err := storage.InsertBatch(ctx, r.db, r.prefix+"records", storage.RecordColumns, recordRows, storage.QuestionMark); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if _, err := storage.InsertBatch(ctx, r.db, r.prefix+"skipped_rows", storage.SkipColumns, skipRows, storage.QuestionMark); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (r *Repository) Close() { _ = r.db.Close() }
