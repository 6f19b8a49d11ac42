package disk_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/storage/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Disk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blocks")

	store, err := disk.New(dir)
	require.NoError(t, err)

	for i := range 3 {
		block := database.Block{Index: uint64(i), Hash: "h", Entries: []database.Entry{}}
		require.NoError(t, store.Write(block))
	}

	// A block file is never overwritten.
	assert.Error(t, store.Write(database.Block{Index: 1}))

	_, err = os.Stat(filepath.Join(dir, "0.json"))
	require.NoError(t, err)

	var count int
	iter := store.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		require.NoError(t, err)
		assert.Equal(t, uint64(count), block.Index)
		count++
	}
	assert.Equal(t, 3, count)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "3.json"), []byte("{bad"), 0600))
	iter = store.ForEach()
	var sawErr bool
	for _, err := iter.Next(); !iter.Done(); _, err = iter.Next() {
		if err != nil {
			sawErr = true
			break
		}
	}
	assert.True(t, sawErr, "corrupt block file should surface an error")

	require.NoError(t, store.Reset())
	_, err = store.GetBlock(0)
	assert.Error(t, err)
}
