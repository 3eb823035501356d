package relay

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"trisense/config"
	"trisense/internal/messaging/consumer"
	"trisense/internal/models"
	"trisense/ledger/types"
)

// Broadcaster is the orchestrator surface the worker drives.
type Broadcaster interface {
	Broadcast(ctx context.Context, payload *models.SensorPayload) (*types.CorrelationRecord, error)
}

// Worker consumes sensor payload messages and broadcasts each one to the
// three ledgers. One message, one broadcast, one correlation record: there is
// nothing to batch across payloads.
type Worker struct {
	workerConfig       config.WorkerConfig
	consumerRetryDelay time.Duration

	logger       *log.Logger
	orchestrator Broadcaster
	consumer     consumer.Consumer
}

// New creates a new Worker instance.
func New(cfg config.WorkerConfig, logger *log.Logger, b Broadcaster, c consumer.Consumer) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	consumerRetryDelay, err := time.ParseDuration(cfg.ConsumerRetryDelay)
	if err != nil {
		logger.Printf("Warning: Invalid consumer_retry_delay '%s', using default 5s", cfg.ConsumerRetryDelay)
		consumerRetryDelay = 5 * time.Second
	}

	return &Worker{
		workerConfig:       cfg,
		consumerRetryDelay: consumerRetryDelay,
		logger:             logger,
		orchestrator:       b,
		consumer:           c,
	}
}

// Run starts the worker pool and blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Printf("Starting worker pool with concurrency: %d", w.workerConfig.Concurrency)
	var wg sync.WaitGroup
	for i := 0; i < w.workerConfig.Concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.logger.Printf("Worker %d started", workerID)
			w.processMessages(ctx, workerID)
			w.logger.Printf("Worker %d stopped", workerID)
		}(i + 1)
	}
	wg.Wait()
	w.logger.Println("Worker pool stopped.")
}

// processMessages is the main loop for a worker goroutine.
func (w *Worker) processMessages(ctx context.Context, workerID int) {
	for {
		msg, ack, err := w.consumer.Consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				w.logger.Printf("Worker %d: Context cancelled, stopping.", workerID)
				return
			}
			w.logger.Printf("Worker %d: Consumer error: %v", workerID, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.consumerRetryDelay):
			}
			continue
		}
		if msg == nil {
			continue
		}

		w.handleMessage(ctx, workerID, msg, ack)
	}
}

// handleMessage broadcasts one payload and acks/nacks its message. Invalid
// payloads are dropped (acked): redelivery cannot fix them.
func (w *Worker) handleMessage(ctx context.Context, workerID int, msg *models.SensorMessage, ack func(success bool)) {
	if err := msg.Payload.Validate(); err != nil {
		w.logger.Printf("Worker %d: Dropping invalid payload (request_id: %s): %v", workerID, msg.RequestID, err)
		ack(true)
		return
	}

	start := time.Now()
	rec, err := w.orchestrator.Broadcast(ctx, &msg.Payload)
	if err != nil {
		// Broadcast failed -> Nack for redelivery. A retry re-submits to all
		// three ledgers and yields new commit refs.
		w.logger.Printf("Worker %d: Broadcast failed (request_id: %s): %v", workerID, msg.RequestID, err)
		ack(false)
		return
	}

	w.logger.Printf("Worker %d: Broadcast committed (request_id: %s, eth=%s, took %v)",
		workerID, msg.RequestID, rec.EthTxHash, time.Since(start))
	ack(true)
}
