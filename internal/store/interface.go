// Package store defines the table-oriented persistence contract the engine
// syncs against, plus the closed registry of tables it may touch.
//
// Backends live in subpackages: sqlite (embedded), badger (key-value) and
// gormstore (postgres through GORM).
package store

import "context"

// Store is the persistence service: select/insert/upsert/delete addressed by
// table name. Implementations must be safe for concurrent use.
type Store interface {
	// Select returns the rows of table matching every filter column, in
	// insertion order. A nil filter selects all rows.
	Select(ctx context.Context, table string, filter Filter) ([]Record, error)

	// Insert adds rows and returns them as stored.
	Insert(ctx context.Context, table string, records []Record) ([]Record, error)

	// Upsert updates the row whose matchKey columns equal record's, or
	// inserts record when none does.
	Upsert(ctx context.Context, table string, record Record, matchKey []string) error

	// Delete removes every row matching all columns of match.
	// An empty match is rejected rather than clearing the table.
	Delete(ctx context.Context, table string, match Filter) error

	// Close releases the backend.
	Close() error
}
