package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/genesis"
	"github.com/pocledger/pocledger/foundation/blockchain/keys"
	"github.com/pocledger/pocledger/foundation/blockchain/storage/memory"
)

func Test_VerifyChainHalts(t *testing.T) {
	owner, err := keys.FromSeed("owner seed phrase")
	if err != nil {
		t.Fatalf("Should be able to derive the owner key: %s", err)
	}

	storage, _ := memory.New()
	l, err := New(Config{
		Genesis: genesis.Genesis{
			TransPerBlock:  5,
			Difficulty:     1,
			InitialCapital: 50,
			Owners:         []database.Address{owner.Address()},
		},
		Storage: storage,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %s", err)
	}

	if err := l.VerifyChain(); err != nil {
		t.Fatalf("Should verify an intact chain: %s", err)
	}

	// Corrupt the in memory genesis block.
	l.mu.Lock()
	l.chain[0].Entries[0].Reward.Amount = 5000
	l.mu.Unlock()

	if err := l.VerifyChain(); !errors.Is(err, ErrChainIntegrity) {
		t.Fatalf("Should get ErrChainIntegrity, got %v", err)
	}

	if err := l.Halted(); !errors.Is(err, ErrChainIntegrity) {
		t.Fatalf("Should report the ledger as halted, got %v", err)
	}

	tx, err := owner.NewTx(database.PublicKeyToAddress([]byte("bob")), 1, 0)
	if err != nil {
		t.Fatalf("Should be able to build a transaction: %s", err)
	}
	signed, err := owner.SignTx(tx)
	if err != nil {
		t.Fatalf("Should be able to sign a transaction: %s", err)
	}

	if err := l.SubmitTransaction(context.Background(), signed); !errors.Is(err, ErrChainIntegrity) {
		t.Fatalf("Should refuse submissions while halted, got %v", err)
	}

	if _, err := l.SealBlock(context.Background()); !errors.Is(err, ErrChainIntegrity) {
		t.Fatalf("Should refuse to seal while halted, got %v", err)
	}
}

func Test_VerifyRewards(t *testing.T) {
	owner, err := keys.FromSeed("owner seed phrase")
	if err != nil {
		t.Fatalf("Should be able to derive the owner key: %s", err)
	}
	miner := database.PublicKeyToAddress([]byte("miner"))

	gen := genesis.Genesis{
		TransPerBlock:  5,
		Difficulty:     1,
		MiningReward:   5,
		InitialCapital: 50,
		Owners:         []database.Address{owner.Address()},
	}

	storage, _ := memory.New()
	l, err := New(Config{
		Genesis:     gen,
		Storage:     storage,
		Beneficiary: miner,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %s", err)
	}

	tx, err := owner.NewTx(database.PublicKeyToAddress([]byte("bob")), 1, 1)
	if err != nil {
		t.Fatalf("Should be able to build a transaction: %s", err)
	}
	signed, err := owner.SignTx(tx)
	if err != nil {
		t.Fatalf("Should be able to sign a transaction: %s", err)
	}

	ctx := context.Background()
	if err := l.SubmitTransaction(ctx, signed); err != nil {
		t.Fatalf("Should accept the transfer: %s", err)
	}
	if _, err := l.SealBlock(ctx); err != nil {
		t.Fatalf("Should be able to seal: %s", err)
	}

	chain := l.BlocksInRange("", "")
	ev := func(v string, args ...any) {}

	if _, err := verifyBlocks(chain, gen, ev); err != nil {
		t.Fatalf("Should verify the sealed chain: %s", err)
	}

	// reseal rebuilds block 1 with the given entries and a valid proof of work.
	reseal := func(entries []database.Entry) []database.Block {
		candidate := database.NewBlock(chain[0], entries)
		candidate.TimeStamp = chain[1].TimeStamp

		block, err := candidate.Seal(ctx, uint(gen.Difficulty), 0, nil)
		if err != nil {
			t.Fatalf("Should be able to reseal the block: %s", err)
		}

		return []database.Block{chain[0], block}
	}

	inflated := database.NewMiningReward(miner, 500, 1, chain[1].TimeStamp)
	blocks := reseal([]database.Entry{database.NewTxEntry(signed), database.NewRewardEntry(inflated)})
	if _, err := verifyBlocks(blocks, gen, ev); !errors.Is(err, database.ErrValidation) {
		t.Fatalf("Should reject an inflated mining reward, got %v", err)
	}

	reward := database.NewMiningReward(miner, gen.MiningReward, 1, chain[1].TimeStamp)
	blocks = reseal([]database.Entry{database.NewTxEntry(signed), database.NewRewardEntry(reward), database.NewRewardEntry(reward)})
	if _, err := verifyBlocks(blocks, gen, ev); !errors.Is(err, database.ErrValidation) {
		t.Fatalf("Should reject a second mining reward, got %v", err)
	}

	rich := gen
	rich.InitialCapital = 5000
	if _, err := verifyBlocks(chain, rich, ev); !errors.Is(err, database.ErrValidation) {
		t.Fatalf("Should reject initial capital that differs from genesis, got %v", err)
	}

	foreign := gen
	foreign.Owners = []database.Address{miner}
	if _, err := verifyBlocks(chain, foreign, ev); !errors.Is(err, database.ErrValidation) {
		t.Fatalf("Should reject owners that differ from genesis, got %v", err)
	}

	if _, err := New(Config{Genesis: rich, Storage: storage}); !errors.Is(err, ErrChainIntegrity) {
		t.Fatalf("Should refuse to load a chain built from other genesis settings, got %v", err)
	}
}
