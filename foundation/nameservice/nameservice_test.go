package nameservice_test

import (
	"path/filepath"
	"testing"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/keys"
	"github.com/pocledger/pocledger/foundation/nameservice"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	root := t.TempDir()

	kp, err := keys.FromSeed("alice wallet seed")
	require.NoError(t, err)
	addr := kp.Address()

	locked, err := kp.Lock("secret", keys.LightKDF)
	require.NoError(t, err)
	require.NoError(t, keys.Save(filepath.Join(root, "alice"+nameservice.WalletExt), locked))
	require.NoError(t, keys.Save(filepath.Join(root, "ignored.json"), locked))

	ns, err := nameservice.New(root)
	require.NoError(t, err)

	require.Equal(t, "alice", ns.Lookup(addr))
	require.Len(t, ns.Copy(), 1)

	other := database.Address("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA.poc")
	require.Equal(t, string(other), ns.Lookup(other))
}
