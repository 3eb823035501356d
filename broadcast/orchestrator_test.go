package broadcast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trisense/internal/models"
	"trisense/ledger/client"
	"trisense/ledger/types"
)

type fakeLedger struct {
	kind      types.LedgerKind
	submitRef types.CommitRef
	submitErr error

	mu      sync.Mutex
	submits int
}

func (f *fakeLedger) Submit(ctx context.Context, payload *models.SensorPayload) (types.CommitRef, error) {
	f.mu.Lock()
	f.submits++
	f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.submitRef, nil
}

func (f *fakeLedger) Fetch(ctx context.Context, ref types.CommitRef) (*types.RawRecord, error) {
	return nil, &types.NotFoundError{Ledger: f.kind, Ref: ref}
}

func (f *fakeLedger) Kind() types.LedgerKind { return f.kind }
func (f *fakeLedger) Close() error           { return nil }

type spyStore struct {
	mu        sync.Mutex
	appended  []*types.CorrelationRecord
	appendErr error
}

func (s *spyStore) Append(_ context.Context, rec *types.CorrelationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended = append(s.appended, rec)
	return nil
}

func (s *spyStore) ListAll(_ context.Context) ([]*types.CorrelationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appended, nil
}

func (s *spyStore) Close() {}

type spyProducer struct {
	published  []*types.CorrelationRecord
	publishErr error
}

func (p *spyProducer) Publish(_ context.Context, rec *types.CorrelationRecord) error {
	if p.publishErr != nil {
		return p.publishErr
	}
	p.published = append(p.published, rec)
	return nil
}

func (p *spyProducer) Close() error { return nil }

func testClients(evm, move, tangle *fakeLedger) *client.Clients {
	return &client.Clients{EVM: evm, Move: move, Tangle: tangle}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func validPayload() *models.SensorPayload {
	return &models.SensorPayload{VehicleID: "VEH-101", Temperature: 23.5, Timestamp: 1735689600}
}

func TestBroadcast_AllLedgersCommitOneRecordAppended(t *testing.T) {
	evm := &fakeLedger{kind: types.KindEVM, submitRef: "0xabc"}
	move := &fakeLedger{kind: types.KindMove, submitRef: "digest123"}
	tangle := &fakeLedger{kind: types.KindTangle, submitRef: "block456"}
	store := &spyStore{}

	o := New(testClients(evm, move, tangle), store, nil, time.Minute, discardLogger())

	before := time.Now().Unix()
	rec, err := o.Broadcast(context.Background(), validPayload())
	after := time.Now().Unix()

	require.NoError(t, err)
	assert.Equal(t, "0xabc", rec.EthTxHash)
	assert.Equal(t, "digest123", rec.SuiDigest)
	assert.Equal(t, "block456", rec.IotaBlockID)
	assert.GreaterOrEqual(t, rec.Timestamp, before)
	assert.LessOrEqual(t, rec.Timestamp, after)

	require.Len(t, store.appended, 1)
	assert.Equal(t, rec, store.appended[0])
	assert.Equal(t, 1, evm.submits)
	assert.Equal(t, 1, move.submits)
	assert.Equal(t, 1, tangle.submits)
}

func TestBroadcast_SingleLedgerFailureAppendsNothing(t *testing.T) {
	evm := &fakeLedger{kind: types.KindEVM, submitRef: "0xabc"}
	move := &fakeLedger{kind: types.KindMove, submitErr: &types.SubmissionError{
		Ledger: types.KindMove, Err: fmt.Errorf("rpc unreachable"),
	}}
	tangle := &fakeLedger{kind: types.KindTangle, submitRef: "block456"}
	store := &spyStore{}

	o := New(testClients(evm, move, tangle), store, nil, time.Minute, discardLogger())

	rec, err := o.Broadcast(context.Background(), validPayload())

	require.Error(t, err)
	assert.Nil(t, rec)
	assert.Empty(t, store.appended)

	var bErr *BroadcastError
	require.ErrorAs(t, err, &bErr)
	require.Len(t, bErr.Failures, 1)
	assert.Equal(t, types.KindMove, bErr.Failures[0].Ledger)
	assert.Contains(t, err.Error(), "move")
	assert.Contains(t, err.Error(), "rpc unreachable")
}

func TestBroadcast_AllLedgersFailNamesEveryLedger(t *testing.T) {
	failing := func(kind types.LedgerKind) *fakeLedger {
		return &fakeLedger{kind: kind, submitErr: &types.SubmissionError{
			Ledger: kind, Err: errors.New("down"),
		}}
	}
	store := &spyStore{}
	o := New(testClients(failing(types.KindEVM), failing(types.KindMove), failing(types.KindTangle)),
		store, nil, time.Minute, discardLogger())

	_, err := o.Broadcast(context.Background(), validPayload())

	var bErr *BroadcastError
	require.ErrorAs(t, err, &bErr)
	assert.Len(t, bErr.Failures, 3)
	assert.Empty(t, store.appended)
}

func TestBroadcast_EmptyCommitRefCountsAsFailure(t *testing.T) {
	evm := &fakeLedger{kind: types.KindEVM, submitRef: ""}
	move := &fakeLedger{kind: types.KindMove, submitRef: "digest123"}
	tangle := &fakeLedger{kind: types.KindTangle, submitRef: "block456"}
	store := &spyStore{}

	o := New(testClients(evm, move, tangle), store, nil, time.Minute, discardLogger())

	_, err := o.Broadcast(context.Background(), validPayload())

	var bErr *BroadcastError
	require.ErrorAs(t, err, &bErr)
	require.Len(t, bErr.Failures, 1)
	assert.Equal(t, types.KindEVM, bErr.Failures[0].Ledger)
	assert.Empty(t, store.appended)
}

func TestBroadcast_StoreFailureSurfacesAfterCommits(t *testing.T) {
	evm := &fakeLedger{kind: types.KindEVM, submitRef: "0xabc"}
	move := &fakeLedger{kind: types.KindMove, submitRef: "digest123"}
	tangle := &fakeLedger{kind: types.KindTangle, submitRef: "block456"}
	store := &spyStore{appendErr: errors.New("connection reset")}

	o := New(testClients(evm, move, tangle), store, nil, time.Minute, discardLogger())

	rec, err := o.Broadcast(context.Background(), validPayload())

	require.Error(t, err)
	assert.Nil(t, rec)
	assert.Contains(t, err.Error(), "persisting the correlation record failed")
}

func TestBroadcast_InvalidPayloadNeverTouchesLedgers(t *testing.T) {
	evm := &fakeLedger{kind: types.KindEVM, submitRef: "0xabc"}
	move := &fakeLedger{kind: types.KindMove, submitRef: "digest123"}
	tangle := &fakeLedger{kind: types.KindTangle, submitRef: "block456"}

	o := New(testClients(evm, move, tangle), &spyStore{}, nil, time.Minute, discardLogger())

	_, err := o.Broadcast(context.Background(), &models.SensorPayload{})

	require.Error(t, err)
	assert.Zero(t, evm.submits)
	assert.Zero(t, move.submits)
	assert.Zero(t, tangle.submits)
}

func TestBroadcast_ProducerFailureDoesNotFailBroadcast(t *testing.T) {
	evm := &fakeLedger{kind: types.KindEVM, submitRef: "0xabc"}
	move := &fakeLedger{kind: types.KindMove, submitRef: "digest123"}
	tangle := &fakeLedger{kind: types.KindTangle, submitRef: "block456"}
	store := &spyStore{}
	prod := &spyProducer{publishErr: errors.New("broker unavailable")}

	o := New(testClients(evm, move, tangle), store, prod, time.Minute, discardLogger())

	rec, err := o.Broadcast(context.Background(), validPayload())

	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Len(t, store.appended, 1)
}

func TestBroadcast_CommittedRecordIsPublished(t *testing.T) {
	evm := &fakeLedger{kind: types.KindEVM, submitRef: "0xabc"}
	move := &fakeLedger{kind: types.KindMove, submitRef: "digest123"}
	tangle := &fakeLedger{kind: types.KindTangle, submitRef: "block456"}
	prod := &spyProducer{}

	o := New(testClients(evm, move, tangle), &spyStore{}, prod, time.Minute, discardLogger())

	rec, err := o.Broadcast(context.Background(), validPayload())

	require.NoError(t, err)
	require.Len(t, prod.published, 1)
	assert.Equal(t, rec, prod.published[0])
}
