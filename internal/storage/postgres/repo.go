// Package postgres implements a Postgres storage.Repository using pgx v5.
// Records are written with COPY; the three result tables are loaded
// concurrently since they are independent.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/importer"
	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/storage"
)

// newRepository is a test hook pointing at NewRepository by default.
var newRepository = NewRepository

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return newRepository(ctx, cfg)
	})
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool   *pgxpool.Pool
	prefix string
}

// NewRepository opens a pgx pool for the given DSN.
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	return &Repository{pool: pool, prefix: cfg.TablePrefix}, nil
}

// EnsureSchema creates the three result tables when absent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %sshelves (
			run_job  text NOT NULL,
			shelf_id text NOT NULL,
			name     text NOT NULL,
			PRIMARY KEY (run_job, shelf_id)
		)`, r.prefix),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %srecords (
			run_job     text NOT NULL,
			record_id   text NOT NULL,
			shelf_id    text NOT NULL,
			kind        text NOT NULL,
			name        text NOT NULL,
			grower      text,
			brand       text,
			thc         double precision,
			terpenes    double precision,
			price       double precision,
			strain_type text,
			sold_out    boolean NOT NULL DEFAULT false,
			last_jar    boolean NOT NULL DEFAULT false,
			low_stock   boolean NOT NULL DEFAULT false,
			notes       text,
			PRIMARY KEY (run_job, record_id)
		)`, r.prefix),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %sskipped_rows (
			run_job   text NOT NULL,
			row_index integer NOT NULL,
			reason    text NOT NULL,
			row_json  jsonb NOT NULL
		)`, r.prefix),
	}
	for _, s := range stmts {
		if _, err := r.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}
	return nil
}

// SaveRun persists one run result. The three tables are independent, so the
// copies run concurrently on separate pool connections.
func (r *Repository) SaveRun(ctx context.Context, job string, res *importer.RunResult) error {
	recordRows, err := storage.RecordRows(job, res)
	if err != nil {
		return err
	}
	skipRows, err := storage.SkipRows(job, res)
	if err != nil {
		return err
	}
	shelfRows := storage.ShelfRows(job, res)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.copy(ctx, r.prefix+"shelves", storage.ShelfColumns, shelfRows) })
	g.Go(func() error { return r.copy(ctx, r.prefix+"records", storage.RecordColumns, recordRows) })
	g.Go(func() error { return r.copy(ctx, r.prefix+"skipped_rows", storage.SkipColumns, skipRows) })
	return g.Wait()
}

func (r *Repository) copy(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	n, err := r.pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("postgres: copy %s: %w", table, err)
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("postgres: copy %s: inserted %d of %d rows", table, n, len(rows))
	}
	return nil
}

// Close releases the pool.
func (r *Repository) Close() { r.pool.Close() }
