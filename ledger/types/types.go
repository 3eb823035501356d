package types

import "fmt"

// LedgerKind identifies one of the three ledgers this system writes to.
type LedgerKind string

const (
	KindEVM    LedgerKind = "evm"
	KindMove   LedgerKind = "move"
	KindTangle LedgerKind = "dataonly"
)

// CommitRef is the opaque identifier a ledger returns on a successful write:
// a transaction hash (EVM), a transaction digest (Move), or a block id
// (data-only). Immutable once returned.
type CommitRef string

// CorrelationRecord links one sensor observation to its three ledger commits.
// Created exactly once per successful broadcast and never mutated.
type CorrelationRecord struct {
	Timestamp   int64  `json:"timestamp"`
	EthTxHash   string `json:"ethTxHash"`
	SuiDigest   string `json:"suiDigest"`
	IotaBlockID string `json:"iotaBlockId"`
}

// RawRecord is a ledger-specific fetch result. Exactly one of the variant
// fields is set, matching Kind. Fetched on demand, never persisted.
type RawRecord struct {
	Kind   LedgerKind    `json:"kind"`
	EVM    *EVMRecord    `json:"evm,omitempty"`
	Move   *MoveRecord   `json:"move,omitempty"`
	Tangle *TangleRecord `json:"dataonly,omitempty"`
}

// EVMRecord is the raw transaction + receipt view of an EVM commit.
type EVMRecord struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"` // ether, decimal string
	BlockNumber uint64 `json:"blockNumber"`
	GasUsed     uint64 `json:"gasUsed"`
	InputData   []byte `json:"-"`
}

// MoveInput is one input argument of a Move transaction as reported by the
// fullnode. Input order is not guaranteed by the ledger.
type MoveInput struct {
	Type      string      `json:"type"`
	ValueType string      `json:"valueType,omitempty"`
	Value     interface{} `json:"value,omitempty"`
}

// MoveRecord is the raw transaction-block view of a Move commit, including the
// best-effort fee estimate derived at fetch time.
type MoveRecord struct {
	Digest     string      `json:"digest"`
	Sender     string      `json:"sender"`
	GasBudget  string      `json:"gasBudget"`
	ExecutedAt string      `json:"executedAt"`
	Inputs     []MoveInput `json:"inputs"`
	FeeCoin    string      `json:"feeCoin"`
	FeeFiat    string      `json:"feeFiat"`
}

// TangleRecord is the raw view of a tagged data block, with tag and message
// already decoded from hex to UTF-8.
type TangleRecord struct {
	BlockID   string `json:"blockId"`
	Tag       string `json:"tag"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// SubmissionError reports a failed ledger write: network, signing, inclusion
// timeout, or a non-zero exit of the external submission process.
type SubmissionError struct {
	Ledger LedgerKind
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s submission failed: %v", e.Ledger, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// NotFoundError reports a read that found no matching transaction or block.
type NotFoundError struct {
	Ledger LedgerKind
	Ref    CommitRef
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no record found for %q", e.Ledger, string(e.Ref))
}
