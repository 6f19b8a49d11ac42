package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/pocledger/pocledger/app/services/node/handlers"
	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/genesis"
	"github.com/pocledger/pocledger/foundation/blockchain/keys"
	"github.com/pocledger/pocledger/foundation/blockchain/ledger"
	"github.com/pocledger/pocledger/foundation/blockchain/peer"
	"github.com/pocledger/pocledger/foundation/blockchain/storage/memory"
	"github.com/pocledger/pocledger/foundation/events"
	"github.com/pocledger/pocledger/foundation/nameservice"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type node struct {
	public  http.Handler
	private http.Handler
	alice   keys.KeyPair
	bob     keys.KeyPair
}

func newNode(t *testing.T) node {
	t.Helper()

	alice, err := keys.FromSeed("alice wallet seed")
	require.NoError(t, err)
	bob, err := keys.FromSeed("bob wallet seed")
	require.NoError(t, err)

	store, err := memory.New()
	require.NoError(t, err)

	l, err := ledger.New(ledger.Config{
		Genesis: genesis.Genesis{
			Date:           time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			TransPerBlock:  3,
			Difficulty:     1,
			InitialCapital: 100,
			Owners:         []database.Address{alice.Address(), bob.Address()},
		},
		Storage: store,
	})
	require.NoError(t, err)
	t.Cleanup(func() { l.Shutdown() })

	ns, err := nameservice.New(t.TempDir())
	require.NoError(t, err)

	cfg := handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		Ledger:   l,
		Peers:    peer.NewPeerSet(),
		NS:       ns,
		Evts:     events.New(),
	}

	return node{
		public:  handlers.PublicMux(cfg),
		private: handlers.PrivateMux(cfg),
		alice:   alice,
		bob:     bob,
	}
}

func call(t *testing.T, h http.Handler, method string, path string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	var resp map[string]any
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}

	return w.Code, resp
}

func signedTx(t *testing.T, from keys.KeyPair, to database.Address, amount float64) database.SignedTx {
	t.Helper()

	tx, err := from.NewTx(to, amount, 0)
	require.NoError(t, err)

	stx, err := from.SignTx(tx)
	require.NoError(t, err)

	return stx
}

func TestSubmit(t *testing.T) {
	n := newNode(t)

	status, resp := call(t, n.public, http.MethodPost, "/v1/tx/submit", signedTx(t, n.alice, n.bob.Address(), 40))
	require.Equal(t, http.StatusOK, status, resp)
	require.NotEmpty(t, resp["id"])

	status, _ = call(t, n.public, http.MethodPost, "/v1/tx/submit", signedTx(t, n.alice, n.bob.Address(), 1000))
	require.Equal(t, http.StatusUnprocessableEntity, status)

	tampered := signedTx(t, n.alice, n.bob.Address(), 10)
	tampered.Amount = 20
	status, _ = call(t, n.public, http.MethodPost, "/v1/tx/submit", tampered)
	require.Equal(t, http.StatusForbidden, status)

	bad := signedTx(t, n.alice, n.bob.Address(), 10)
	body := map[string]any{
		"amount":     bad.Amount,
		"from":       bad.From,
		"public_key": bad.PublicKey.String(),
		"timestamp":  bad.TimeStamp,
		"to":         "not-an-address",
		"signature":  bad.Signature.String(),
	}
	status, resp = call(t, n.public, http.MethodPost, "/v1/tx/submit", body)
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, resp["fields"], "to")

	r := httptest.NewRequest(http.MethodGet, "/v1/tx/pending", nil)
	w := httptest.NewRecorder()
	n.public.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var pending []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
}

func TestQueriesAndSeal(t *testing.T) {
	n := newNode(t)

	status, resp := call(t, n.public, http.MethodGet, "/v1/blockchain/block_count", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 1, resp["block_count"])

	status, resp = call(t, n.public, http.MethodGet, "/v1/wallets/info/"+string(n.alice.Address()), nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 100, resp["balance"])

	status, _ = call(t, n.public, http.MethodGet, "/v1/wallets/info/garbage", nil)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, n.private, http.MethodPost, "/v1/node/seal", nil)
	require.Equal(t, http.StatusConflict, status, "sealing an empty queue should conflict")

	status, _ = call(t, n.public, http.MethodPost, "/v1/tx/submit", signedTx(t, n.alice, n.bob.Address(), 25))
	require.Equal(t, http.StatusOK, status)

	status, resp = call(t, n.private, http.MethodPost, "/v1/node/seal", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 1, resp["index"])

	status, resp = call(t, n.public, http.MethodGet, "/v1/wallets/info/"+string(n.bob.Address()), nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 125, resp["balance"])

	status, resp = call(t, n.private, http.MethodGet, "/v1/node/verify", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 2, resp["blocks"])

	status, resp = call(t, n.private, http.MethodGet, "/v1/node/status", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 2, resp["block_count"])
	require.EqualValues(t, 0, resp["pending"])
}

func TestCors(t *testing.T) {
	n := newNode(t)

	r := httptest.NewRequest(http.MethodOptions, "/v1/tx/submit", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	n.public.ServeHTTP(w, r)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	require.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
	require.Zero(t, w.Body.Len())

	r = httptest.NewRequest(http.MethodGet, "/v1/blockchain/block_count", nil)
	w = httptest.NewRecorder()
	n.public.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
}
