package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"

	"trisense/internal/models"
	"trisense/ledger/types"
)

// Client wraps an EVM JSON-RPC connection and the fixed storeData contract.
// It holds one long-lived signing key, read-only for the client's lifetime.
type Client struct {
	eth              *ethclient.Client
	cfg              *Config
	key              *ecdsa.PrivateKey
	from             common.Address
	contract         common.Address
	chainID          *big.Int
	inclusionTimeout time.Duration
	logger           *log.Logger
}

// NewClient initializes the EVM client from its configuration, resolving the
// signing key from the configured environment variable.
func NewClient(cfg *Config, logger *log.Logger) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("evm configuration error: %w", err)
	}

	key, err := crypto.HexToECDSA(os.Getenv(cfg.PrivateKeyEnv))
	if err != nil {
		return nil, fmt.Errorf("failed to parse EVM signing key from %s: %w", cfg.PrivateKeyEnv, err)
	}

	inclusionTimeout, err := time.ParseDuration(cfg.InclusionTimeout)
	if err != nil {
		logger.Printf("Warning: Invalid evm inclusion_timeout '%s', using default 60s", cfg.InclusionTimeout)
		inclusionTimeout = 60 * time.Second
	}

	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial EVM RPC endpoint: %w", err)
	}

	logger.Printf("EVM client connected to %s (chain %d), contract %s", cfg.RPCURL, cfg.ChainID, cfg.ContractAddress)

	return &Client{
		eth:              eth,
		cfg:              cfg,
		key:              key,
		from:             crypto.PubkeyToAddress(key.PublicKey),
		contract:         common.HexToAddress(cfg.ContractAddress),
		chainID:          big.NewInt(cfg.ChainID),
		inclusionTimeout: inclusionTimeout,
		logger:           logger,
	}, nil
}

func (c *Client) Kind() types.LedgerKind { return types.KindEVM }

// Close releases the underlying RPC connection.
func (c *Client) Close() error {
	c.eth.Close()
	return nil
}

// Submit records the payload via storeData(string) and waits for inclusion.
// The returned CommitRef is the transaction hash.
func (c *Client) Submit(ctx context.Context, payload *models.SensorPayload) (types.CommitRef, error) {
	data, err := EncodeCallData(payload)
	if err != nil {
		return "", &types.SubmissionError{Ledger: types.KindEVM, Err: fmt.Errorf("encoding call data: %w", err)}
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.from)
	if err != nil {
		return "", &types.SubmissionError{Ledger: types.KindEVM, Err: fmt.Errorf("fetching nonce: %w", err)}
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", &types.SubmissionError{Ledger: types.KindEVM, Err: fmt.Errorf("fetching gas price: %w", err)}
	}

	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &c.contract,
		Gas:      c.cfg.GasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return "", &types.SubmissionError{Ledger: types.KindEVM, Err: fmt.Errorf("signing transaction: %w", err)}
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return "", &types.SubmissionError{Ledger: types.KindEVM, Err: fmt.Errorf("sending transaction: %w", err)}
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.inclusionTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, c.eth, signed)
	if err != nil {
		return "", &types.SubmissionError{Ledger: types.KindEVM, Err: fmt.Errorf("waiting for inclusion of %s: %w", signed.Hash().Hex(), err)}
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return "", &types.SubmissionError{Ledger: types.KindEVM, Err: fmt.Errorf("transaction %s reverted in block %d", signed.Hash().Hex(), receipt.BlockNumber.Uint64())}
	}

	c.logger.Printf("EVM transaction %s confirmed in block %d", signed.Hash().Hex(), receipt.BlockNumber.Uint64())
	return types.CommitRef(signed.Hash().Hex()), nil
}

// Fetch retrieves the transaction and its receipt by hash. Both must exist.
func (c *Client) Fetch(ctx context.Context, ref types.CommitRef) (*types.RawRecord, error) {
	hash := common.HexToHash(string(ref))

	tx, pending, err := c.eth.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, &types.NotFoundError{Ledger: types.KindEVM, Ref: ref}
		}
		return nil, fmt.Errorf("fetching EVM transaction %s: %w", ref, err)
	}
	if pending {
		return nil, &types.NotFoundError{Ledger: types.KindEVM, Ref: ref}
	}
	receipt, err := c.eth.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, &types.NotFoundError{Ledger: types.KindEVM, Ref: ref}
		}
		return nil, fmt.Errorf("fetching EVM receipt %s: %w", ref, err)
	}

	from, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(c.chainID), tx)
	if err != nil {
		c.logger.Printf("Warning: Could not recover sender of %s: %v", ref, err)
	}
	to := ""
	if tx.To() != nil {
		to = tx.To().Hex()
	}

	return &types.RawRecord{
		Kind: types.KindEVM,
		EVM: &types.EVMRecord{
			Hash:        tx.Hash().Hex(),
			From:        from.Hex(),
			To:          to,
			Value:       formatEther(tx.Value()),
			BlockNumber: receipt.BlockNumber.Uint64(),
			GasUsed:     receipt.GasUsed,
			InputData:   tx.Data(),
		},
	}, nil
}

// formatEther renders a wei amount as a decimal ether string.
func formatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	f := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether))
	return f.Text('f', 6)
}
