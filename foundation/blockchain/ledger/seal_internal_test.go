package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/genesis"
	"github.com/pocledger/pocledger/foundation/blockchain/keys"
	"github.com/pocledger/pocledger/foundation/blockchain/storage/memory"
)

func Test_SealWaitsForFullQueue(t *testing.T) {
	owner, err := keys.FromSeed("owner seed phrase")
	if err != nil {
		t.Fatalf("Should be able to derive the owner key: %s", err)
	}
	to := database.PublicKeyToAddress([]byte("bob"))

	storage, _ := memory.New()
	l, err := New(Config{
		Genesis: genesis.Genesis{
			TransPerBlock:  3,
			Difficulty:     1,
			InitialCapital: 50,
			Owners:         []database.Address{owner.Address()},
		},
		Storage:     storage,
		SealTimeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %s", err)
	}

	ctx := context.Background()
	timestamp := uint64(1_704_067_200_000)

	send := func() database.SignedTx {
		timestamp++
		tx, err := owner.NewTx(to, 1, timestamp)
		if err != nil {
			t.Fatalf("Should be able to build a transaction: %s", err)
		}
		signed, err := owner.SignTx(tx)
		if err != nil {
			t.Fatalf("Should be able to sign a transaction: %s", err)
		}
		return signed
	}

	// Hold the seal lock so the submission that fills the queue has to wait.
	l.sealMu.Lock()

	for range 2 {
		if err := l.SubmitTransaction(ctx, send()); err != nil {
			l.sealMu.Unlock()
			t.Fatalf("Should accept the transfer: %s", err)
		}
	}

	third := send()
	done := make(chan error, 1)
	go func() {
		done <- l.SubmitTransaction(ctx, third)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for len(l.Pending()) != 3 {
		if time.Now().After(deadline) {
			l.sealMu.Unlock()
			t.Fatalf("Should queue the third transfer.")
		}
		time.Sleep(time.Millisecond)
	}

	// Another seal drains the queue while the submission waits.
	if _, err := l.seal(ctx); err != nil {
		l.sealMu.Unlock()
		t.Fatalf("Should be able to seal the full queue: %s", err)
	}

	if err := l.SubmitTransaction(ctx, send()); err != nil {
		l.sealMu.Unlock()
		t.Fatalf("Should accept the fourth transfer: %s", err)
	}

	l.sealMu.Unlock()

	if err := <-done; err != nil {
		t.Fatalf("Should accept the third transfer: %s", err)
	}

	if n := l.BlockCount(); n != 2 {
		t.Fatalf("Should not seal a block below the threshold, got %d blocks", n)
	}

	if n := len(l.LatestBlock().Entries); n != 3 {
		t.Fatalf("Should seal the full queue in one block, got %d entries", n)
	}

	if n := len(l.Pending()); n != 1 {
		t.Fatalf("Should leave the fourth transfer pending, got %d", n)
	}
}
