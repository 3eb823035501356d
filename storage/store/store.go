package store

import (
	"context"

	"trisense/ledger/types"
)

// Store is the append-only correlation record store. Records are never
// updated or deleted; reads always return newest first.
type Store interface {
	// Append durably persists one correlation record.
	Append(ctx context.Context, rec *types.CorrelationRecord) error

	// ListAll returns every correlation record ordered by timestamp descending.
	ListAll(ctx context.Context) ([]*types.CorrelationRecord, error)

	// Close releases the store's resources.
	Close()
}
