package broadcast

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"trisense/internal/messaging/producer"
	"trisense/internal/models"
	"trisense/ledger/client"
	"trisense/ledger/types"
	"trisense/storage/store"
)

// LedgerFailure records one ledger's failed submission inside a broadcast.
type LedgerFailure struct {
	Ledger types.LedgerKind
	Err    error
}

// BroadcastError aggregates the submission failures of one broadcast, naming
// each ledger that failed. Ledgers that already committed are not rolled back;
// external ledgers cannot be. The resulting partial on-chain write without a
// correlation record is a documented inconsistency window.
type BroadcastError struct {
	Failures []LedgerFailure
}

func (e *BroadcastError) Error() string {
	names := make([]string, len(e.Failures))
	details := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = string(f.Ledger)
		details[i] = f.Err.Error()
	}
	return fmt.Sprintf("broadcast failed on ledger(s) %s: %s",
		strings.Join(names, ", "), strings.Join(details, "; "))
}

// Orchestrator drives one sensor payload to all three ledgers and persists the
// correlated result. Persistence is all-or-nothing: no record is appended
// unless every ledger committed. No retry is performed here; a failed
// broadcast is reported upward, and retrying re-submits to all three ledgers.
type Orchestrator struct {
	clients  *client.Clients
	store    store.Store
	producer producer.Producer // optional, may be nil
	timeout  time.Duration
	logger   *log.Logger
	now      func() time.Time
}

// New creates an Orchestrator. producer may be nil when no out-topic is
// configured.
func New(clients *client.Clients, s store.Store, p producer.Producer, timeout time.Duration, logger *log.Logger) *Orchestrator {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Orchestrator{
		clients:  clients,
		store:    s,
		producer: p,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

type submitResult struct {
	ledger types.LedgerKind
	ref    types.CommitRef
	err    error
}

// Broadcast submits the payload to all three ledgers concurrently, and on
// all-success appends one correlation record stamped with the server clock.
func (o *Orchestrator) Broadcast(ctx context.Context, payload *models.SensorPayload) (*types.CorrelationRecord, error) {
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	submitCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	targets := []struct {
		ledger types.LedgerKind
		client client.LedgerClient
	}{
		{types.KindEVM, o.clients.EVM},
		{types.KindMove, o.clients.Move},
		{types.KindTangle, o.clients.Tangle},
	}

	results := make([]submitResult, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, ledger types.LedgerKind, lc client.LedgerClient) {
			defer wg.Done()
			ref, err := lc.Submit(submitCtx, payload)
			if err == nil && ref == "" {
				err = &types.SubmissionError{Ledger: ledger, Err: fmt.Errorf("ledger returned an empty commit ref")}
			}
			results[i] = submitResult{ledger: ledger, ref: ref, err: err}
		}(i, target.ledger, target.client)
	}
	wg.Wait()

	var failures []LedgerFailure
	refs := make(map[types.LedgerKind]types.CommitRef, len(targets))
	for _, res := range results {
		if res.err != nil {
			failures = append(failures, LedgerFailure{Ledger: res.ledger, Err: res.err})
			continue
		}
		refs[res.ledger] = res.ref
	}
	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].Ledger < failures[j].Ledger })
		err := &BroadcastError{Failures: failures}
		o.logger.Printf("Broadcast for vehicle %s failed: %v", payload.VehicleID, err)
		return nil, err
	}

	rec := &types.CorrelationRecord{
		Timestamp:   o.now().Unix(),
		EthTxHash:   string(refs[types.KindEVM]),
		SuiDigest:   string(refs[types.KindMove]),
		IotaBlockID: string(refs[types.KindTangle]),
	}
	if err := o.store.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("all ledgers committed but persisting the correlation record failed: %w", err)
	}

	o.logger.Printf("Broadcast committed: eth=%s sui=%s iota=%s", rec.EthTxHash, rec.SuiDigest, rec.IotaBlockID)

	// The record is already durable; a publish failure must not fail the broadcast.
	if o.producer != nil {
		if err := o.producer.Publish(ctx, rec); err != nil {
			o.logger.Printf("Warning: Failed to publish committed record (eth_tx: %s): %v", rec.EthTxHash, err)
		}
	}

	return rec, nil
}
