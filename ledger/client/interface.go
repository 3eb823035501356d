package client

import (
	"context"

	"trisense/internal/models"
	"trisense/ledger/types"
)

// LedgerClient is the ledger-agnostic write/read contract implemented by the
// EVM, Move and tagged-data-block clients. Clients are stateless apart from
// their long-lived signing credential and apply their own ledger-specific
// inclusion-wait policy inside Submit.
type LedgerClient interface {
	// Submit durably records the payload on the ledger and returns the
	// ledger's commit identifier. Failures are reported as *types.SubmissionError.
	Submit(ctx context.Context, payload *models.SensorPayload) (types.CommitRef, error)

	// Fetch retrieves the raw record behind a commit identifier. A missing
	// transaction or block is reported as *types.NotFoundError.
	Fetch(ctx context.Context, ref types.CommitRef) (*types.RawRecord, error)

	// Kind identifies which ledger this client talks to.
	Kind() types.LedgerKind

	// Close releases the client's connections.
	Close() error
}
