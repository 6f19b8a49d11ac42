package commands_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/pocledger/pocledger/app/tooling/admin/commands"
	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/genesis"
	"github.com/pocledger/pocledger/foundation/blockchain/ledger"
	"github.com/pocledger/pocledger/foundation/blockchain/storage/memory"
	"github.com/stretchr/testify/require"
)

const alice = database.Address("UAXRHPxSK1VrST89zuoYD_ia3-NNIzVwSdG.poc")

func newLedger(t *testing.T) *ledger.Ledger {
	t.Helper()

	store, err := memory.New()
	require.NoError(t, err)

	l, err := ledger.New(ledger.Config{
		Genesis: genesis.Genesis{
			Date:           time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			TransPerBlock:  3,
			Difficulty:     1,
			InitialCapital: 100,
			Owners:         []database.Address{alice},
		},
		Storage: store,
	})
	require.NoError(t, err)
	t.Cleanup(func() { l.Shutdown() })

	return l
}

func TestCommands(t *testing.T) {
	l := newLedger(t)

	var out bytes.Buffer
	require.NoError(t, commands.Balances(&out, l, ""))
	require.Contains(t, out.String(), "Address: "+string(alice)+"  Balance: 100")

	out.Reset()
	require.NoError(t, commands.Balances(&out, l, string(alice)))
	require.Contains(t, out.String(), "+100  block: 0  type: reward")

	require.Error(t, commands.Balances(&out, l, "not-an-address"))

	out.Reset()
	require.NoError(t, commands.Blocks(&out, l, "", ""))
	require.Contains(t, out.String(), "Block: 0")

	out.Reset()
	require.NoError(t, commands.Verify(&out, l))
	require.Contains(t, out.String(), "Chain is valid: 1 blocks")
}
