// Package warehouse loads the built star schema into a relational warehouse.
//
// Backends register themselves by kind from init() so that importing
// warehouse/all wires every supported database, and adding a backend never
// touches the loader.
package warehouse

import (
	"context"
	"fmt"
	"sync"
)

// Config selects and connects a backend.
type Config struct {
	Kind string
	DSN  string
}

// Repository is the minimal surface the loader needs. Each backend implements
// these semantics its own way (Postgres ON CONFLICT, SQLite OR IGNORE, ...).
type Repository interface {
	// Close releases connections. Call once at shutdown.
	Close()

	// EnsureSchema creates the warehouse tables if they do not exist yet.
	EnsureSchema(ctx context.Context, tables []TableSpec) error

	// CountRows returns the row count of a table, used for the idempotency
	// check before loading.
	CountRows(ctx context.Context, table string) (int64, error)

	// InsertRows bulk-inserts rows and reports how many were written. Rows
	// already present under the table's primary key may be skipped rather
	// than erroring, depending on the backend.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
// Call it from an init() in the backend package.
//
// Panics on empty kind, nil factory, or duplicate registration; ambiguous
// backend selection should fail fast.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("warehouse: Register called with empty kind")
	}
	if f == nil {
		panic("warehouse: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("warehouse: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New constructs a Repository for the configured backend kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("warehouse: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("warehouse: unsupported kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
