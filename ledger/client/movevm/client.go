package movevm

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	suimodels "github.com/block-vision/sui-go-sdk/models"
	"github.com/block-vision/sui-go-sdk/signer"
	"github.com/block-vision/sui-go-sdk/sui"

	"trisense/internal/models"
	"trisense/ledger/types"
)

const mistPerSui = 1e9

// PriceSource resolves a coin's fiat price. Implementations are best-effort
// and return 0 when no price is available.
type PriceSource interface {
	PriceInFiat(ctx context.Context, coinID, vsCurrency string) float64
}

// Client wraps a Move-ledger fullnode connection and the fixed entry-function
// target. It holds one long-lived Ed25519 signing credential.
type Client struct {
	api    sui.ISuiAPI
	cfg    *Config
	signer *signer.Signer
	prices PriceSource
	logger *log.Logger
}

// NewClient initializes the Move-ledger client from its configuration,
// deriving the signing keypair from the configured environment variable.
func NewClient(cfg *Config, prices PriceSource, logger *log.Logger) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("move configuration error: %w", err)
	}

	seed, err := hex.DecodeString(os.Getenv(cfg.PrivateKeyEnv))
	if err != nil {
		return nil, fmt.Errorf("failed to decode Move signing seed from %s: %w", cfg.PrivateKeyEnv, err)
	}
	keypair := signer.NewSigner(seed)

	logger.Printf("Move client connected to %s, target %s::%s::%s", cfg.RPCURL, cfg.PackageID, cfg.Module, cfg.Function)

	return &Client{
		api:    sui.NewSuiClient(cfg.RPCURL),
		cfg:    cfg,
		signer: keypair,
		prices: prices,
		logger: logger,
	}, nil
}

func (c *Client) Kind() types.LedgerKind { return types.KindMove }

// Close is a no-op: the underlying client is a plain HTTP JSON-RPC connection.
func (c *Client) Close() error { return nil }

// Submit builds a transaction invoking the fixed entry function with the JSON
// byte sequence as its sole argument, signs it and executes it. The returned
// CommitRef is the execution digest.
func (c *Client) Submit(ctx context.Context, payload *models.SensorPayload) (types.CommitRef, error) {
	arg, err := EncodeArgument(payload)
	if err != nil {
		return "", &types.SubmissionError{Ledger: types.KindMove, Err: fmt.Errorf("encoding argument: %w", err)}
	}

	txn, err := c.api.MoveCall(ctx, suimodels.MoveCallRequest{
		Signer:          c.signer.Address,
		PackageObjectId: c.cfg.PackageID,
		Module:          c.cfg.Module,
		Function:        c.cfg.Function,
		TypeArguments:   []interface{}{},
		Arguments:       []interface{}{string(arg)},
		GasBudget:       c.cfg.GasBudget,
	})
	if err != nil {
		return "", &types.SubmissionError{Ledger: types.KindMove, Err: fmt.Errorf("building transaction: %w", err)}
	}

	resp, err := c.api.SignAndExecuteTransactionBlock(ctx, suimodels.SignAndExecuteTransactionBlockRequest{
		TxnMetaData: txn,
		PriKey:      c.signer.PriKey,
		Options: suimodels.SuiTransactionBlockOptions{
			ShowEffects: true,
		},
		RequestType: "WaitForLocalExecution",
	})
	if err != nil {
		return "", &types.SubmissionError{Ledger: types.KindMove, Err: fmt.Errorf("executing transaction: %w", err)}
	}
	if resp.Digest == "" {
		return "", &types.SubmissionError{Ledger: types.KindMove, Err: fmt.Errorf("execution returned no digest")}
	}

	c.logger.Printf("Move transaction executed, digest %s", resp.Digest)
	return types.CommitRef(resp.Digest), nil
}

// Fetch retrieves the transaction block by digest, requesting input and
// effects, and derives the best-effort fee estimate from gas used.
func (c *Client) Fetch(ctx context.Context, ref types.CommitRef) (*types.RawRecord, error) {
	resp, err := c.api.SuiGetTransactionBlock(ctx, suimodels.SuiGetTransactionBlockRequest{
		Digest: string(ref),
		Options: suimodels.SuiTransactionBlockOptions{
			ShowInput:   true,
			ShowEffects: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fetching Move transaction %s: %w", ref, err)
	}
	if resp.Digest == "" || resp.Transaction.Data.Sender == "" {
		return nil, &types.NotFoundError{Ledger: types.KindMove, Ref: ref}
	}

	fee := c.feeEstimate(ctx, resp.Effects.GasUsed.ComputationCost)

	return &types.RawRecord{
		Kind: types.KindMove,
		Move: &types.MoveRecord{
			Digest:     resp.Digest,
			Sender:     resp.Transaction.Data.Sender,
			GasBudget:  resp.Transaction.Data.GasData.Budget,
			ExecutedAt: formatTimestampMs(resp.TimestampMs),
			Inputs:     convertInputs(resp.Transaction.Data.Transaction.Inputs),
			FeeCoin:    fee.Coin,
			FeeFiat:    fee.Fiat,
		},
	}, nil
}

// feeEstimate converts gas units to the native coin at the fixed per-unit
// price and then to fiat. A price-lookup failure yields a zero fiat estimate,
// never an error.
func (c *Client) feeEstimate(ctx context.Context, gasUsed string) models.FeeEstimate {
	units, err := strconv.ParseInt(gasUsed, 10, 64)
	if err != nil || units < 0 {
		return models.FeeEstimate{Coin: "0.000000", Fiat: "0.000000"}
	}
	costCoin := float64(units*c.cfg.GasPriceMist) / mistPerSui

	var costFiat float64
	if c.prices != nil {
		price := c.prices.PriceInFiat(ctx, c.cfg.Pricing.CoinID, c.cfg.Pricing.VsCurrency)
		costFiat = costCoin * price
	}
	return models.FeeEstimate{
		Coin: strconv.FormatFloat(costCoin, 'f', 6, 64),
		Fiat: strconv.FormatFloat(costFiat, 'f', 6, 64),
	}
}

// convertInputs normalizes the SDK's input representation through JSON so the
// codec can scan it without depending on SDK types.
func convertInputs(raw interface{}) []types.MoveInput {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var inputs []types.MoveInput
	if err := json.Unmarshal(b, &inputs); err != nil {
		return nil
	}
	return inputs
}

func formatTimestampMs(ms string) string {
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil || n <= 0 {
		return ""
	}
	return time.UnixMilli(n).UTC().Format(time.RFC3339)
}
