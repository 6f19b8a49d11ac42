// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/pocledger/pocledger/app/services/node/handlers/v1/private"
	"github.com/pocledger/pocledger/app/services/node/handlers/v1/public"
	"github.com/pocledger/pocledger/foundation/blockchain/ledger"
	"github.com/pocledger/pocledger/foundation/blockchain/peer"
	"github.com/pocledger/pocledger/foundation/events"
	"github.com/pocledger/pocledger/foundation/nameservice"
	"github.com/pocledger/pocledger/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log       *zap.SugaredLogger
	Ledger    *ledger.Ledger
	Peers     *peer.PeerSet
	LocalHost string
	NS        *nameservice.NameService
	Evts      *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:       cfg.Log,
		Ledger:    cfg.Ledger,
		Peers:     cfg.Peers,
		LocalHost: cfg.LocalHost,
		NS:        cfg.NS,
		WS:        websocket.Upgrader{},
		Evts:      cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
	app.Handle(http.MethodGet, version, "/tx/pending", pbl.Pending)
	app.Handle(http.MethodGet, version, "/blockchain/block_count", pbl.BlockCount)
	app.Handle(http.MethodGet, version, "/blockchain/blocks", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/wallets/info/:address", pbl.WalletInfo)
	app.Handle(http.MethodGet, version, "/peers", pbl.ListPeers)
	app.Handle(http.MethodGet, version, "/peers/count", pbl.PeerCount)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:       cfg.Log,
		Ledger:    cfg.Ledger,
		Peers:     cfg.Peers,
		LocalHost: cfg.LocalHost,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodPost, version, "/node/seal", prv.Seal)
	app.Handle(http.MethodGet, version, "/node/verify", prv.Verify)
	app.Handle(http.MethodGet, version, "/node/balances", prv.Balances)
}
