// Package private maintains the group of handlers for node operator access.
package private

import (
	"context"
	"net/http"

	v1 "github.com/pocledger/pocledger/business/web/v1"
	"github.com/pocledger/pocledger/foundation/blockchain/ledger"
	"github.com/pocledger/pocledger/foundation/blockchain/peer"
	"github.com/pocledger/pocledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log       *zap.SugaredLogger
	Ledger    *ledger.Ledger
	Peers     *peer.PeerSet
	LocalHost string
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest := h.Ledger.LatestBlock()

	var halted string
	if err := h.Ledger.Halted(); err != nil {
		halted = err.Error()
	}

	status := struct {
		Host            string `json:"host"`
		LatestBlockHash string `json:"latest_block_hash"`
		LatestBlockNum  uint64 `json:"latest_block_number"`
		BlockCount      int    `json:"block_count"`
		Pending         int    `json:"pending"`
		KnownPeers      int    `json:"known_peers"`
		Halted          string `json:"halted,omitempty"`
	}{
		Host:            h.LocalHost,
		LatestBlockHash: latest.Hash,
		LatestBlockNum:  latest.Index,
		BlockCount:      h.Ledger.BlockCount(),
		Pending:         len(h.Ledger.Pending()),
		KnownPeers:      h.Peers.Count(),
		Halted:          halted,
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// Seal forces the pending transactions into a new block.
func (h Handlers) Seal(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	block, err := h.Ledger.SealBlock(ctx)
	if err != nil {
		return v1.NewLedgerError(err)
	}

	h.Log.Infow("seal", "traceid", v.TraceID, "block", block.Index, "hash", block.Hash, "entries", len(block.Entries))

	return web.Respond(ctx, w, block, http.StatusOK)
}

// Verify re-verifies the whole chain. A failure halts the ledger.
func (h Handlers) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.Ledger.VerifyChain(); err != nil {
		return v1.NewLedgerError(err)
	}

	resp := struct {
		Status string `json:"status"`
		Blocks int    `json:"blocks"`
	}{
		Status: "chain is valid",
		Blocks: h.Ledger.BlockCount(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balances returns the balance of every address in the chain.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Ledger.Balances(), http.StatusOK)
}
