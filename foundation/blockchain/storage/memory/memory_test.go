package memory_test

import (
	"testing"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Memory(t *testing.T) {
	store, err := memory.New()
	require.NoError(t, err)

	for i := range 3 {
		require.NoError(t, store.Write(database.Block{Index: uint64(i), Hash: "h"}))
	}
	assert.ErrorContains(t, store.Write(database.Block{Index: 1}), "already exists")
	assert.ErrorContains(t, store.Write(database.Block{Index: 7}), "out of order")

	iter := store.ForEach()
	require.NoError(t, store.Write(database.Block{Index: 3, Hash: "h"}))

	var count int
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		require.NoError(t, err)
		assert.Equal(t, uint64(count), block.Index)
		count++
	}
	assert.Equal(t, 3, count, "iterator walks the blocks stored when it was created")

	require.NoError(t, store.Reset())
	_, err = store.GetBlock(0)
	assert.ErrorIs(t, err, memory.ErrNotFound)
}

func Test_MemoryCopies(t *testing.T) {
	store, err := memory.New()
	require.NoError(t, err)

	reward := database.NewInitialReward(database.PublicKeyToAddress([]byte("owner")), 50, 1)
	block := database.NewGenesisBlock([]database.Entry{database.NewRewardEntry(reward)}, 1)
	require.NoError(t, store.Write(block))

	block.Entries[0] = database.NewRewardEntry(database.NewInitialReward(reward.To, 5000, 1))

	got, err := store.GetBlock(0)
	require.NoError(t, err)
	assert.EqualValues(t, 50, got.Entries[0].Reward.Amount)

	got.Entries[0] = block.Entries[0]

	again, err := store.GetBlock(0)
	require.NoError(t, err)
	assert.EqualValues(t, 50, again.Entries[0].Reward.Amount)
}
