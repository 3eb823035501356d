package reconstruct

import (
	"context"
	"log"
	"sync"

	"trisense/internal/models"
	"trisense/ledger/client"
	"trisense/ledger/client/evm"
	"trisense/ledger/client/movevm"
	"trisense/ledger/client/tangle"
	"trisense/ledger/types"
)

// View is the decoded result for one ledger: the raw record plus whatever
// payload and telemetry the codec could recover. Payload and Telemetry stay
// nil when decoding fails; the raw record is still surfaced.
type View struct {
	Record    *types.RawRecord        `json:"record"`
	Payload   *models.SensorPayload   `json:"payload,omitempty"`
	Telemetry *models.TelemetryDetail `json:"telemetry,omitempty"`
}

// Result bundles the three per-ledger views. Acceleration is the derived
// scalar summary: the first decodable value in EVM, Move, data-only order.
type Result struct {
	EVM          *View  `json:"evm"`
	Move         *View  `json:"move"`
	Tangle       *View  `json:"dataonly"`
	Acceleration string `json:"acceleration,omitempty"`
}

// Service rebuilds the original sensor payload of a stored correlation record
// by querying each ledger independently. Nothing here is persisted; every
// reconstruction is computed on demand.
type Service struct {
	clients *client.Clients
	logger  *log.Logger
}

// NewService creates a reconstruction service over the three ledger clients.
func NewService(clients *client.Clients, logger *log.Logger) *Service {
	return &Service{clients: clients, logger: logger}
}

// Reconstruct fetches and decodes all three ledgers concurrently. A fetch or
// decode failure on one ledger never hides the other two; unresolvable refs
// simply yield nil views. Reconstruct itself never fails.
func (s *Service) Reconstruct(ctx context.Context, rec *types.CorrelationRecord) *Result {
	result := &Result{}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		result.EVM = s.view(ctx, s.clients.EVM, types.CommitRef(rec.EthTxHash))
	}()
	go func() {
		defer wg.Done()
		result.Move = s.view(ctx, s.clients.Move, types.CommitRef(rec.SuiDigest))
	}()
	go func() {
		defer wg.Done()
		result.Tangle = s.view(ctx, s.clients.Tangle, types.CommitRef(rec.IotaBlockID))
	}()
	wg.Wait()

	// First ledger with a decodable acceleration wins, in fixed priority order.
	for _, v := range []*View{result.EVM, result.Move, result.Tangle} {
		if v != nil && v.Telemetry != nil && v.Telemetry.Accel != models.NotAvailable {
			result.Acceleration = v.Telemetry.Accel
			break
		}
	}

	return result
}

func (s *Service) view(ctx context.Context, lc client.LedgerClient, ref types.CommitRef) *View {
	if ref == "" {
		return nil
	}
	raw, err := lc.Fetch(ctx, ref)
	if err != nil {
		s.logger.Printf("Reconstruction: fetch of %s ref %q failed: %v", lc.Kind(), ref, err)
		return nil
	}

	view := &View{Record: raw}
	var payload *models.SensorPayload
	var ok bool
	switch raw.Kind {
	case types.KindEVM:
		payload, ok = evm.DecodeCallData(raw.EVM.InputData)
	case types.KindMove:
		payload, ok = movevm.DecodeInputs(raw.Move.Inputs)
	case types.KindTangle:
		payload, ok = tangle.DecodeMessage(raw.Tangle.Message)
	}
	if !ok {
		s.logger.Printf("Reconstruction: no payload decodable from %s ref %q", raw.Kind, ref)
		return view
	}

	view.Payload = payload
	if payload.Data != "" {
		detail := models.ParseTelemetry(payload.Data)
		view.Telemetry = &detail
	}
	return view
}
