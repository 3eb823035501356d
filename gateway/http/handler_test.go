package http

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trisense/internal/models"
	"trisense/ledger/client"
	"trisense/ledger/types"
	"trisense/reconstruct"
	"trisense/storage/store"
)

type fakeBroadcaster struct {
	rec *types.CorrelationRecord
	err error

	lastPayload *models.SensorPayload
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, payload *models.SensorPayload) (*types.CorrelationRecord, error) {
	f.lastPayload = payload
	if f.err != nil {
		return nil, f.err
	}
	return f.rec, nil
}

type fakeLedger struct {
	kind types.LedgerKind
}

func (f *fakeLedger) Submit(ctx context.Context, payload *models.SensorPayload) (types.CommitRef, error) {
	return "", &types.SubmissionError{Ledger: f.kind, Err: errors.New("not used")}
}

func (f *fakeLedger) Fetch(ctx context.Context, ref types.CommitRef) (*types.RawRecord, error) {
	return nil, &types.NotFoundError{Ledger: f.kind, Ref: ref}
}

func (f *fakeLedger) Kind() types.LedgerKind { return f.kind }
func (f *fakeLedger) Close() error           { return nil }

func newTestHandler(b Broadcaster, s store.Store) *SensorHandler {
	logger := log.New(io.Discard, "", 0)
	clients := &client.Clients{
		EVM:    &fakeLedger{kind: types.KindEVM},
		Move:   &fakeLedger{kind: types.KindMove},
		Tangle: &fakeLedger{kind: types.KindTangle},
	}
	return NewSensorHandler(b, s, reconstruct.NewService(clients, logger), logger)
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestSend_Success(t *testing.T) {
	b := &fakeBroadcaster{rec: &types.CorrelationRecord{
		Timestamp:   1735689600,
		EthTxHash:   "0xabc",
		SuiDigest:   "digest123",
		IotaBlockID: "block456",
	}}
	h := newTestHandler(b, store.NewMemoryStore(log.New(io.Discard, "", 0)))

	w := postJSON(t, h.Send, `{"vehicle_id":"VEH-101","temperature":23.5,"humidity":40,"speed":61.5,"timestamp":1735689600}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ethTxHash":"0xabc","suiDigest":"digest123","iotaBlockId":"block456"}`, w.Body.String())

	require.NotNil(t, b.lastPayload)
	assert.Equal(t, "VEH-101", b.lastPayload.VehicleID)
}

func TestSend_BroadcastFailureReturns500WithError(t *testing.T) {
	b := &fakeBroadcaster{err: errors.New("broadcast failed on ledger(s) move: rpc unreachable")}
	h := newTestHandler(b, store.NewMemoryStore(log.New(io.Discard, "", 0)))

	w := postJSON(t, h.Send, `{"vehicle_id":"VEH-101","timestamp":1735689600}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"broadcast failed on ledger(s) move: rpc unreachable"}`, w.Body.String())
}

func TestSend_InvalidJSONReturns400(t *testing.T) {
	h := newTestHandler(&fakeBroadcaster{}, store.NewMemoryStore(log.New(io.Discard, "", 0)))

	w := postJSON(t, h.Send, `{"vehicle_id": `)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSend_InvalidPayloadReturns400(t *testing.T) {
	b := &fakeBroadcaster{}
	h := newTestHandler(b, store.NewMemoryStore(log.New(io.Discard, "", 0)))

	w := postJSON(t, h.Send, `{"temperature":23.5}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, b.lastPayload)
}

func TestSend_RequiresJSONContentType(t *testing.T) {
	h := newTestHandler(&fakeBroadcaster{}, store.NewMemoryStore(log.New(io.Discard, "", 0)))

	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.Send(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSend_RejectsNonPost(t *testing.T) {
	h := newTestHandler(&fakeBroadcaster{}, store.NewMemoryStore(log.New(io.Discard, "", 0)))

	req := httptest.NewRequest(http.MethodGet, "/send", nil)
	w := httptest.NewRecorder()
	h.Send(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestTransactions_EmptyStoreReturnsEmptyArray(t *testing.T) {
	h := newTestHandler(&fakeBroadcaster{}, store.NewMemoryStore(log.New(io.Discard, "", 0)))

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	w := httptest.NewRecorder()
	h.Transactions(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestTransactions_ReturnsRecordsNewestFirst(t *testing.T) {
	memStore := store.NewMemoryStore(log.New(io.Discard, "", 0))
	ctx := context.Background()
	require.NoError(t, memStore.Append(ctx, &types.CorrelationRecord{Timestamp: 1735689600, EthTxHash: "0xold"}))
	require.NoError(t, memStore.Append(ctx, &types.CorrelationRecord{Timestamp: 1735689900, EthTxHash: "0xnew"}))

	h := newTestHandler(&fakeBroadcaster{}, memStore)

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	w := httptest.NewRecorder()
	h.Transactions(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Less(t, strings.Index(body, "0xnew"), strings.Index(body, "0xold"))
}

func TestReconstruct_RequiresAtLeastOneRef(t *testing.T) {
	h := newTestHandler(&fakeBroadcaster{}, store.NewMemoryStore(log.New(io.Discard, "", 0)))

	req := httptest.NewRequest(http.MethodGet, "/reconstruct", nil)
	w := httptest.NewRecorder()
	h.Reconstruct(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconstruct_UnresolvableRefsStillRespondOK(t *testing.T) {
	h := newTestHandler(&fakeBroadcaster{}, store.NewMemoryStore(log.New(io.Discard, "", 0)))

	req := httptest.NewRequest(http.MethodGet, "/reconstruct?eth_tx=0xmissing", nil)
	w := httptest.NewRecorder()
	h.Reconstruct(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"evm":null`)
}

func TestHealthCheck(t *testing.T) {
	h := newTestHandler(&fakeBroadcaster{}, store.NewMemoryStore(log.New(io.Discard, "", 0)))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.HealthCheck(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}
