package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"trisense/broadcast"
	"trisense/config"
	gatewayhttp "trisense/gateway/http"
	"trisense/internal/messaging/producer"
	"trisense/ledger/client"
	"trisense/reconstruct"
	"trisense/storage/store"
)

// Gateway configuration file path
const gatewayConfigPath = "./config/gateway.defaults.yml"

func main() {
	logger := log.New(os.Stdout, "[GATEWAY] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting Sensor Gateway...")

	// 1. Load gateway configuration
	cfg, err := config.LoadGatewayConfig(gatewayConfigPath)
	if err != nil {
		logger.Fatalf("Failed to load gateway configuration: %v", err)
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

	// 4. [Conditional] committed-record producer
	var recordProducer producer.Producer
	if cfg.KafkaProducer.Enabled() {
		logger.Println("Initializing Kafka producer...")
		kafkaProducer, err := producer.NewKafkaProducer(cfg.KafkaProducer, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize Kafka producer: %v", err)
		}
		defer kafkaProducer.Close()
		recordProducer = kafkaProducer
	} else {
		logger.Println("kafka_producer not configured, committed records will not be published.")
	}

	// 5. Core services and handler
	orchestrator := broadcast.New(clients, correlationStore, recordProducer, cfg.Broadcast.Timeout, logger)
	reconService := reconstruct.NewService(clients, logger)
	handler := gatewayhttp.NewSensorHandler(orchestrator, correlationStore, reconService, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/send", handler.Send)
	mux.HandleFunc("/transactions", handler.Transactions)
	mux.HandleFunc("/reconstruct", handler.Reconstruct)
	mux.HandleFunc("/health", handler.HealthCheck)

	// Use HTTP server configuration with defaults
	readTimeout := cfg.HttpServer.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 5 * time.Second
	}
	writeTimeout := cfg.HttpServer.WriteTimeout
	if writeTimeout == 0 {
		// Broadcasts wait for ledger inclusion; the write timeout must outlast them.
		writeTimeout = cfg.Broadcast.Timeout + 30*time.Second
	}
	idleTimeout := cfg.HttpServer.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 60 * time.Second
	}
	maxHeaderBytes := cfg.HttpServer.MaxHeaderBytes
	if maxHeaderBytes == 0 {
		maxHeaderBytes = 1 << 20 // 1 MB
	}

	httpServer := &http.Server{
		Addr:           cfg.HttpListenAddr,
		Handler:        mux,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: maxHeaderBytes,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Printf("HTTP server listening on %s", cfg.HttpListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server startup failed: %v", err)
		}
		logger.Println("HTTP server stopped listening.")
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Printf("Received shutdown signal: %s, starting graceful shutdown of gateway...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	logger.Println("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server shutdown failed: %v", err)
	} else {
		logger.Println("HTTP server shutdown.")
	}

	wg.Wait()
	logger.Println("Gateway shutdown.")
}
