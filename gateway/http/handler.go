package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"trisense/internal/models"
	"trisense/ledger/types"
	"trisense/reconstruct"
	"trisense/storage/store"
)

// Broadcaster is the orchestrator surface the handler depends on.
type Broadcaster interface {
	Broadcast(ctx context.Context, payload *models.SensorPayload) (*types.CorrelationRecord, error)
}

// SensorHandler encapsulates the logic for handling the HTTP surface.
type SensorHandler struct {
	orchestrator Broadcaster
	store        store.Store
	recon        *reconstruct.Service
	logger       *log.Logger
}

// NewSensorHandler creates a new SensorHandler.
func NewSensorHandler(b Broadcaster, s store.Store, r *reconstruct.Service, l *log.Logger) *SensorHandler {
	return &SensorHandler{orchestrator: b, store: s, recon: r, logger: l}
}

// Send handles POST /send requests: one sensor payload in, three commit refs out.
func (h *SensorHandler) Send(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.Header.Get("Content-Type") != "application/json" {
		h.respondError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}
	if r.ContentLength > 1*1024*1024 { // 1MB limit, sensor payloads are tiny
		h.respondError(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	var payload models.SensorPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Printf("HTTP Handler: Failed to parse JSON request: %v", err)
		h.respondError(w, "Bad Request: Invalid JSON format", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := payload.Validate(); err != nil {
		h.respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	requestID := uuid.NewString()
	h.logger.Printf("HTTP Handler: request %s: broadcasting payload for vehicle %s", requestID, payload.VehicleID)

	rec, err := h.orchestrator.Broadcast(r.Context(), &payload)
	if err != nil {
		h.logger.Printf("HTTP Handler: request %s: broadcast failed: %v", requestID, err)
		h.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, map[string]interface{}{
		"ethTxHash":   rec.EthTxHash,
		"suiDigest":   rec.SuiDigest,
		"iotaBlockId": rec.IotaBlockID,
	}, http.StatusOK)
}

// Transactions handles GET /transactions requests, returning every
// correlation record newest first.
func (h *SensorHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	records, err := h.store.ListAll(r.Context())
	if err != nil {
		h.logger.Printf("HTTP Handler: Failed to list correlation records: %v", err)
		h.respondError(w, "Failed to retrieve records", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*types.CorrelationRecord{}
	}

	h.respondJSON(w, records, http.StatusOK)
}

// Reconstruct handles GET /reconstruct requests. The refs of the record to
// rebuild are passed as query parameters; the result is computed on demand
// and never persisted.
func (h *SensorHandler) Reconstruct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	rec := &types.CorrelationRecord{
		EthTxHash:   q.Get("eth_tx"),
		SuiDigest:   q.Get("sui_digest"),
		IotaBlockID: q.Get("iota_block"),
	}
	if rec.EthTxHash == "" && rec.SuiDigest == "" && rec.IotaBlockID == "" {
		h.respondError(w, "at least one of eth_tx, sui_digest, iota_block is required", http.StatusBadRequest)
		return
	}

	h.respondJSON(w, h.recon.Reconstruct(r.Context(), rec), http.StatusOK)
}

// HealthCheck handles GET /health requests.
func (h *SensorHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	h.respondJSON(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339Nano),
		"service":   "gateway",
	}, http.StatusOK)
}

// respondJSON sends JSON response.
func (h *SensorHandler) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("HTTP Handler: Failed to encode JSON response: %v", err)
		// Cannot send error to client at this point
	}
}

// respondError sends error response.
func (h *SensorHandler) respondError(w http.ResponseWriter, message string, statusCode int) {
	h.respondJSON(w, map[string]interface{}{"error": message}, statusCode)
}
