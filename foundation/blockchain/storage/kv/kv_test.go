package kv_test

import (
	"testing"
	"time"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/peer"
	"github.com/pocledger/pocledger/foundation/blockchain/signature"
	"github.com/pocledger/pocledger/foundation/blockchain/storage/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blocks(n int) []database.Block {
	var out []database.Block

	prev := database.Block{Hash: signature.ZeroHash}
	for i := range n {
		block := database.Block{
			Index:        uint64(i),
			PreviousHash: prev.Hash,
			TimeStamp:    uint64(1000 + i),
			Entries:      []database.Entry{},
		}
		block.Hash = block.ComputeHash()

		out = append(out, block)
		prev = block
	}

	return out
}

func Test_Blocks(t *testing.T) {
	store, err := kv.Open(kv.Config{})
	require.NoError(t, err)
	defer store.Close()

	chain := blocks(12)
	for _, block := range chain {
		require.NoError(t, store.Write(block))
	}

	// Rewriting or skipping ahead is refused.
	assert.Error(t, store.Write(chain[3]))
	gap := chain[11]
	gap.Index = 20
	assert.Error(t, store.Write(gap))

	got, err := store.GetBlock(10)
	require.NoError(t, err)
	assert.Equal(t, chain[10].Hash, got.Hash)

	var walked []database.Block
	iter := store.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		require.NoError(t, err)
		walked = append(walked, block)
	}
	require.Len(t, walked, len(chain))
	for i := range chain {
		assert.Equal(t, chain[i].Index, walked[i].Index)
		assert.Equal(t, chain[i].Hash, walked[i].Hash)
	}

	require.NoError(t, store.Reset())
	_, err = store.GetBlock(0)
	assert.Error(t, err)
}

func Test_Peers(t *testing.T) {
	store, err := kv.Open(kv.Config{})
	require.NoError(t, err)
	defer store.Close()

	ps, err := peer.NewPeerSetWithStore(store)
	require.NoError(t, err)
	assert.Equal(t, 0, ps.Count())

	_, err = ps.Add(peer.Peer{Host: "10.0.0.2:9080", LastSeen: time.Unix(100, 0).UTC()})
	require.NoError(t, err)
	_, err = ps.Add(peer.Peer{Host: "10.0.0.3:9080", LastSeen: time.Unix(200, 0).UTC()})
	require.NoError(t, err)
	_, err = ps.Add(peer.Peer{Host: "10.0.0.2:9080", LastSeen: time.Unix(300, 0).UTC()})
	require.NoError(t, err)

	loaded, err := peer.NewPeerSetWithStore(store)
	require.NoError(t, err)

	peers := loaded.Copy("")
	require.Len(t, peers, 2)
	assert.Equal(t, "10.0.0.2:9080", peers[0].Host)
	assert.True(t, peers[0].LastSeen.Equal(time.Unix(300, 0)))
}
