package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"trisense/broadcast"
	"trisense/config"
	"trisense/internal/messaging/consumer"
	"trisense/ledger/client"
	"trisense/relay"
	"trisense/storage/store"
)

const relayConfigPath = "./config/relay.defaults.yml"

func main() {
	logger := log.New(os.Stdout, "[RELAY] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting Broadcast Relay...")

	// 1. Load relay configuration
	cfg, err := config.LoadRelayConfig(relayConfigPath)
	if err != nil {
		logger.Fatalf("Failed to load relay configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize the correlation store
	var correlationStore store.Store
	if cfg.Database.InMemory() {
		logger.Println("Using in-memory correlation store (no database configured)")
		correlationStore = store.NewMemoryStore(logger)
	} else {
		logger.Println("Initializing database connection...")
		pgStore, err := store.NewPostgresStore(ctx, cfg.Database.DSN, cfg.Database.MinConnections, cfg.Database.MaxConnections, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize database store: %v", err)
		}
		correlationStore = pgStore
	}
	defer correlationStore.Close()

	// 3. Initialize the three ledger clients
	logger.Println("Initializing ledger clients using configuration files...")
	ledgersCfg, err := client.LoadLedgersConfig(cfg.LedgersConfigPath)
	if err != nil {
		logger.Fatalf("Failed to load ledgers configuration: %v", err)
	}
	clients, err := client.NewClients(ledgersCfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize ledger clients: %v", err)
	}
	defer clients.Close()

	orchestrator := broadcast.New(clients, correlationStore, nil, cfg.Broadcast.Timeout, logger)

	// 4. Initialize multiple consumers
	var mqConsumers []consumer.Consumer
	if len(cfg.KafkaConsumer.Brokers) > 0 && cfg.KafkaConsumer.Brokers[0] != "mock://local" {
		logger.Printf("Initializing %d Kafka message queue consumers...", cfg.KafkaConsumer.Count)
		for i := 0; i < cfg.KafkaConsumer.Count; i++ {
			kafkaConsumer, err := consumer.NewKafkaConsumer(cfg.KafkaConsumer, logger)
			if err != nil {
				logger.Fatalf("Failed to initialize Kafka consumer %d: %v", i, err)
			}
			mqConsumers = append(mqConsumers, kafkaConsumer)
		}
	} else {
		logger.Println("Initializing Mock message queue consumer...")
		mqConsumers = append(mqConsumers, consumer.NewMockConsumer(logger))
	}

	defer func() {
		for _, c := range mqConsumers {
			c.Close()
		}
	}()

	// 5. Create and start one worker per consumer
	var wg sync.WaitGroup
	for i, mqConsumer := range mqConsumers {
		workerInstance := relay.New(cfg.Worker, logger, orchestrator, mqConsumer)

		wg.Add(1)
		go func(workerID int, w *relay.Worker) {
			defer wg.Done()
			logger.Printf("Starting worker %d with its dedicated consumer...", workerID)
			w.Run(ctx)
			logger.Printf("Worker %d stopped.", workerID)
		}(i+1, workerInstance)
	}

	logger.Printf("Broadcast Relay started with %d workers. Press Ctrl+C to stop.", len(mqConsumers))

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Println("Received shutdown signal, initiating graceful shutdown...")
	cancel()

	logger.Println("Waiting for all workers to finish...")
	wg.Wait()

	logger.Println("Broadcast Relay shut down gracefully.")
}
