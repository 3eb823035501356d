package store

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trisense/ledger/types"
)

func TestMemoryStore_ListAllNewestFirstForAnyInsertionOrder(t *testing.T) {
	s := NewMemoryStore(log.New(io.Discard, "", 0))
	ctx := context.Background()

	timestamps := []int64{1735689700, 1735689600, 1735689900, 1735689800}
	for _, ts := range timestamps {
		require.NoError(t, s.Append(ctx, &types.CorrelationRecord{
			Timestamp: ts,
			EthTxHash: "0xabc",
		}))
	}

	records, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 4)
	for i := 1; i < len(records); i++ {
		assert.GreaterOrEqual(t, records[i-1].Timestamp, records[i].Timestamp)
	}
	assert.Equal(t, int64(1735689900), records[0].Timestamp)
	assert.Equal(t, int64(1735689600), records[3].Timestamp)
}

func TestMemoryStore_AppendClonesRecord(t *testing.T) {
	s := NewMemoryStore(log.New(io.Discard, "", 0))
	ctx := context.Background()

	rec := &types.CorrelationRecord{Timestamp: 1735689600, EthTxHash: "0xabc"}
	require.NoError(t, s.Append(ctx, rec))

	rec.EthTxHash = "0xmutated"

	records, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "0xabc", records[0].EthTxHash)
}

func TestMemoryStore_EmptyListAll(t *testing.T) {
	s := NewMemoryStore(log.New(io.Discard, "", 0))

	records, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}
