package store

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"

	"trisense/ledger/types"
)

// PostgresStore persists correlation records in the transactions table.
// Schema management is external; the store only appends and reads.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgresStore creates a connection pool against the given DSN.
func NewPostgresStore(ctx context.Context, dsn string, minConns, maxConns int, logger *log.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}
	poolCfg.MinConns = int32(minConns)
	poolCfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.ConnectConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Printf("Database pool established (min=%d, max=%d)", minConns, maxConns)
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Append inserts one correlation record. Records are write-once.
func (s *PostgresStore) Append(ctx context.Context, rec *types.CorrelationRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transactions (timestamp, iota_evm_tx, sui_tx, iota_block) VALUES ($1, $2, $3, $4)`,
		rec.Timestamp, rec.EthTxHash, rec.SuiDigest, rec.IotaBlockID,
	)
	if err != nil {
		return fmt.Errorf("failed to append correlation record: %w", err)
	}
	return nil
}

// ListAll returns every correlation record, newest first.
func (s *PostgresStore) ListAll(ctx context.Context) ([]*types.CorrelationRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT timestamp, iota_evm_tx, sui_tx, iota_block FROM transactions ORDER BY timestamp DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query correlation records: %w", err)
	}
	defer rows.Close()

	var records []*types.CorrelationRecord
	for rows.Next() {
		var rec types.CorrelationRecord
		if err := rows.Scan(&rec.Timestamp, &rec.EthTxHash, &rec.SuiDigest, &rec.IotaBlockID); err != nil {
			return nil, fmt.Errorf("failed to scan correlation record: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read correlation records: %w", err)
	}
	return records, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.logger.Println("Closing database pool...")
	s.pool.Close()
}

var _ Store = (*PostgresStore)(nil)
