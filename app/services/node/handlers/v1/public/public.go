// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	v1 "github.com/pocledger/pocledger/business/web/v1"
	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/ledger"
	"github.com/pocledger/pocledger/foundation/blockchain/peer"
	"github.com/pocledger/pocledger/foundation/events"
	"github.com/pocledger/pocledger/foundation/nameservice"
	"github.com/pocledger/pocledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log       *zap.SugaredLogger
	Ledger    *ledger.Ledger
	Peers     *peer.PeerSet
	LocalHost string
	NS        *nameservice.NameService
	WS        websocket.Upgrader
	Evts      *events.Events
}

// Events handles a web socket to provide events to a client. The optional
// filter query parameter limits the stream to events with that prefix.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID, web.Query(r, "filter"))
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Ledger.Genesis(), http.StatusOK)
}

// SubmitTransaction adds a new signed transaction to the pending queue.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req submitTx
	if err := web.Decode(r, &req); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	tx, err := req.toSignedTx()
	if err != nil {
		return v1.NewLedgerError(err)
	}

	h.Log.Infow("submit tx", "traceid", v.TraceID, "from", tx.From, "to", tx.To, "amount", tx.Amount)
	if err := h.Ledger.SubmitTransaction(ctx, tx); err != nil {
		return v1.NewLedgerError(err)
	}

	resp := struct {
		Status string `json:"status"`
		ID     string `json:"id"`
	}{
		Status: "transaction added to pending queue",
		ID:     tx.ID(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Pending returns the set of transactions waiting to be sealed.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pending := h.Ledger.Pending()

	txs := make([]pendingTx, len(pending))
	for i, tx := range pending {
		txs[i] = pendingTx{
			ID:        tx.ID(),
			From:      tx.From,
			FromName:  h.NS.Lookup(tx.From),
			To:        tx.To,
			ToName:    h.NS.Lookup(tx.To),
			Amount:    tx.Amount,
			TimeStamp: tx.TimeStamp,
			Signature: tx.SignatureString(),
		}
	}

	return web.Respond(ctx, w, txs, http.StatusOK)
}

// BlockCount returns the number of blocks in the chain.
func (h Handlers) BlockCount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, blockCount{BlockCount: h.Ledger.BlockCount()}, http.StatusOK)
}

// Blocks returns the blocks with index in [start, end).
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.Ledger.BlocksInRange(web.Query(r, "start"), web.Query(r, "end"))
	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// WalletInfo returns the balance and history of an address.
func (h Handlers) WalletInfo(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address, err := database.ToAddress(web.Param(r, "address"))
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("invalid address: %w", err), http.StatusBadRequest)
	}

	info := h.Ledger.AddressInfo(address)

	resp := walletInfo{
		Address:      info.Address,
		Name:         h.NS.Lookup(info.Address),
		Balance:      info.Balance,
		Transactions: info.Transactions,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ListPeers returns the known peers.
func (h Handlers) ListPeers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Peers.Copy(h.LocalHost), http.StatusOK)
}

// PeerCount returns the number of known peers.
func (h Handlers) PeerCount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, peerCount{Count: h.Peers.Count()}, http.StatusOK)
}
