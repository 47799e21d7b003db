// Package mysql implements a MySQL storage.Repository using database/sql
// and the go-sql-driver. Writes go through the shared transactional batch
// inserter.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/importer"
	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/storage"
)

// newRepository is a test hook pointing at NewRepository by default.
var newRepository = NewRepository

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return newRepository(ctx, cfg)
	})
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	prefix string
}

// NewRepository opens a MySQL connection pool, e.g. DSN
// "user:pass@tcp(host:3306)/menus?parseTime=true".
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("mysql: DSN must not be empty")
	}
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return &Repository{db: db, prefix: cfg.TablePrefix}, nil
}

// EnsureSchema creates the three result tables when absent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %sshelves (
			run_job  VARCHAR(128) NOT NULL,
			shelf_id VARCHAR(64)  NOT NULL,
			name     VARCHAR(255) NOT NULL,
			PRIMARY KEY (run_job, shelf_id)
		)`, r.prefix),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %srecords (
			run_job     VARCHAR(128) NOT NULL,
			record_id   VARCHAR(64)  NOT NULL,
			shelf_id    VARCHAR(64)  NOT NULL,
			kind        VARCHAR(16)  NOT NULL,
			name        VARCHAR(255) NOT NULL,
			grower      VARCHAR(255),
			brand       VARCHAR(255),
			thc         DOUBLE,
			terpenes    DOUBLE,
			price       DOUBLE,
			strain_type VARCHAR(32),
			sold_out    BOOLEAN NOT NULL DEFAULT FALSE,
			last_jar    BOOLEAN NOT NULL DEFAULT FALSE,
			low_stock   BOOLEAN NOT NULL DEFAULT FALSE,
			notes       TEXT,
			PRIMARY KEY (run_job, record_id)
		)`, r.prefix),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %sskipped_rows (
			run_job   VARCHAR(128) NOT NULL,
			row_index INT NOT NULL,
			reason    TEXT NOT NULL,
			row_json  JSON NOT NULL
		)`, r.prefix),
	}
	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("mysql: ensure schema: %w", err)
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
		return fmt.Errorf("mysql: %w", err)
	}
	if _, err := storage.InsertBatch(ctx, r.db, r.prefix+"records", storage.RecordColumns, recordRows, storage.QuestionMark); err != nil {
		return fmt.Errorf("mysql: %w", err)
	}
	if _, err := storage.InsertBatch(ctx, r.db, r.prefix+"skipped_rows", storage.SkipColumns, skipRows, storage.QuestionMark); err != nil {
		return fmt.Errorf("mysql: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (r *Repository) Close() { _ = r.db.Close() }
