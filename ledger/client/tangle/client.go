package tangle

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"trisense/internal/models"
	"trisense/ledger/types"
)

// Client talks to the data-only ledger. Writes are delegated to an external
// submission process; reads hit the node's core REST API directly.
type Client struct {
	cfg            *Config
	http           *http.Client
	requestTimeout time.Duration
	logger         *log.Logger
}

// NewClient initializes the tangle client from its configuration.
func NewClient(cfg *Config, logger *log.Logger) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tangle configuration error: %w", err)
	}

	requestTimeout, err := time.ParseDuration(cfg.RequestTimeout)
	if err != nil {
		logger.Printf("Warning: Invalid tangle request_timeout '%s', using default 10s", cfg.RequestTimeout)
		requestTimeout = 10 * time.Second
	}

	logger.Printf("Tangle client using node %s, submit command %q", cfg.NodeURL, cfg.SubmitCommand[0])

	return &Client{
		cfg:            cfg,
		http:           &http.Client{Timeout: requestTimeout},
		requestTimeout: requestTimeout,
		logger:         logger,
	}, nil
}

func (c *Client) Kind() types.LedgerKind { return types.KindTangle }

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Submit runs the external submission process with the payload JSON as its
// final argument. The process posts the tagged data block and prints the
// block id on stdout; a non-zero exit is a submission failure.
func (c *Client) Submit(ctx context.Context, payload *models.SensorPayload) (types.CommitRef, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &types.SubmissionError{Ledger: types.KindTangle, Err: fmt.Errorf("encoding payload: %w", err)}
	}

	args := append(append([]string(nil), c.cfg.SubmitCommand[1:]...), string(body))
	cmd := exec.CommandContext(ctx, c.cfg.SubmitCommand[0], args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", &types.SubmissionError{
				Ledger: types.KindTangle,
				Err:    fmt.Errorf("submission process exited with %d: %s", exitErr.ExitCode(), strings.TrimSpace(string(exitErr.Stderr))),
			}
		}
		return "", &types.SubmissionError{Ledger: types.KindTangle, Err: fmt.Errorf("running submission process: %w", err)}
	}

	blockID := strings.TrimSpace(string(out))
	if blockID == "" {
		return "", &types.SubmissionError{Ledger: types.KindTangle, Err: fmt.Errorf("submission process returned no block id")}
	}

	c.logger.Printf("Tangle block posted: %s", blockID)
	return types.CommitRef(blockID), nil
}

// blockResponse mirrors the core-API block route, payload section included.
type blockResponse struct {
	Payload *struct {
		Tag  string `json:"tag"`
		Data string `json:"data"`
	} `json:"payload"`
	Timestamp int64 `json:"timestamp"`
}

// Fetch retrieves the block by id. A block without a payload section carries
// no data and is reported as not found.
func (c *Client) Fetch(ctx context.Context, ref types.CommitRef) (*types.RawRecord, error) {
	url := strings.TrimRight(c.cfg.NodeURL, "/") + "/api/core/v2/blocks/" + string(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building block request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching tangle block %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &types.NotFoundError{Ledger: types.KindTangle, Ref: ref}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching tangle block %s: unexpected status %d", ref, resp.StatusCode)
	}

	var block blockResponse
	if err := json.NewDecoder(resp.Body).Decode(&block); err != nil {
		return nil, fmt.Errorf("parsing tangle block %s: %w", ref, err)
	}
	if block.Payload == nil {
		return nil, &types.NotFoundError{Ledger: types.KindTangle, Ref: ref}
	}

	timestamp := ""
	if block.Timestamp > 0 {
		timestamp = strconv.FormatInt(block.Timestamp, 10)
	}

	return &types.RawRecord{
		Kind: types.KindTangle,
		Tangle: &types.TangleRecord{
			BlockID:   string(ref),
			Tag:       HexToUTF8(block.Payload.Tag),
			Message:   HexToUTF8(block.Payload.Data),
			Timestamp: timestamp,
		},
	}, nil
}
