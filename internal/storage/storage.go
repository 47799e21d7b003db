// Package storage contains the storage-agnostic contract for persisting
// completed import runs, plus a registry-based factory so the CLI can stay
// backend-agnostic. Concrete backends (sqlite, postgres, mysql, mssql) live
// in subpackages and register themselves in init; importing
// internal/storage/all enables every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/importer"
)

// Repository persists completed import runs. Implementations must be safe
// for sequential reuse across runs; concurrent use is not required.
type Repository interface {
	// EnsureSchema creates the result tables when they do not exist.
	EnsureSchema(ctx context.Context) error

	// SaveRun writes one run's shelves, records, and skipped rows.
	SaveRun(ctx context.Context, job string, res *importer.RunResult) error

	// Close releases the underlying connections.
	Close()
}

// Config selects and configures a backend.
type Config struct {
	// Kind names a registered backend ("sqlite", "postgres", ...).
	Kind string

	// DSN is the backend-specific connection string.
	DSN string

	// TablePrefix optionally prefixes the three result tables.
	TablePrefix string
}

// Factory builds a Repository from a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs a backend factory under kind. Backends call this from
// init; re-registering a kind panics to surface wiring mistakes early.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[kind]; dup {
		panic(fmt.Sprintf("storage: backend %q registered twice", kind))
	}
	factories[kind] = f
}

// New opens a Repository for cfg.Kind. Unknown kinds report the registered
// alternatives.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown backend %q (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds lists the registered backend names, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
