package producer

import (
	"context"

	"trisense/ledger/types"
)

// Producer publishes committed correlation records for downstream consumers.
type Producer interface {
	// Publish sends one committed correlation record.
	Publish(ctx context.Context, rec *types.CorrelationRecord) error

	// Close closes the producer connection.
	Close() error
}
