package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pocledger/pocledger/foundation/blockchain/pow"
	"github.com/pocledger/pocledger/foundation/blockchain/signature"
)

// Block represents a group of entries sealed together and linked to the
// previous block by hash.
type Block struct {
	Index        uint64  `json:"index"`         // Position of the block in the chain, genesis is 0.
	PreviousHash string  `json:"previous_hash"` // Hash of the previous block, ZeroHash for genesis.
	TimeStamp    uint64  `json:"timestamp"`     // Unix milliseconds the block was built.
	Nonce        uint64  `json:"nonce"`         // Value identified to solve the hash solution.
	Entries      []Entry `json:"entries"`       // Ordered transactions and rewards.
	Hash         string  `json:"hash"`          // Hash of every other field.
}

// NewBlock constructs the unsealed candidate block that follows the
// specified previous block.
func NewBlock(prevBlock Block, entries []Entry) Block {
	return Block{
		Index:        prevBlock.Index + 1,
		PreviousHash: prevBlock.Hash,
		TimeStamp:    uint64(time.Now().UTC().UnixMilli()),
		Entries:      entries,
	}
}

// NewGenesisBlock constructs the unsealed candidate for the first block.
func NewGenesisBlock(entries []Entry, timestamp uint64) Block {
	return Block{
		Index:        0,
		PreviousHash: signature.ZeroHash,
		TimeStamp:    timestamp,
		Entries:      entries,
	}
}

// hashedBlock is the canonical form of a block used for hashing. Entries
// are encoded once ahead of the nonce search.
type hashedBlock struct {
	Index        uint64          `json:"index"`
	PreviousHash string          `json:"previous_hash"`
	TimeStamp    uint64          `json:"timestamp"`
	Nonce        uint64          `json:"nonce"`
	Entries      json.RawMessage `json:"entries"`
}

// Hasher returns a function that hashes the block for any nonce.
func (b Block) Hasher() (pow.HashFunc, error) {
	entries := b.Entries
	if entries == nil {
		entries = []Entry{}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}

	hb := hashedBlock{
		Index:        b.Index,
		PreviousHash: b.PreviousHash,
		TimeStamp:    b.TimeStamp,
		Entries:      data,
	}

	f := func(nonce uint64) string {
		hb.Nonce = nonce
		return signature.Hash(hb)
	}

	return f, nil
}

// ComputeHash recomputes the hash of the block from its fields.
func (b Block) ComputeHash() string {
	hashFn, err := b.Hasher()
	if err != nil {
		return signature.ZeroHash
	}

	return hashFn(b.Nonce)
}

// Seal performs the proof of work for the candidate block and returns the
// sealed block with its nonce and hash set.
func (b Block) Seal(ctx context.Context, difficulty uint, maxAttempts uint64, ev func(v string, args ...any)) (Block, error) {
	hashFn, err := b.Hasher()
	if err != nil {
		return Block{}, err
	}

	nonce, hash, err := pow.FindNonce(ctx, hashFn, pow.LeadingZeros(difficulty), maxAttempts, ev)
	if err != nil {
		return Block{}, err
	}

	b.Nonce = nonce
	b.Hash = hash

	return b, nil
}

// VerifyPOW recomputes the hash from the block fields and checks it matches
// the recorded hash and satisfies the difficulty.
func (b Block) VerifyPOW(difficulty uint) bool {
	hash := b.ComputeHash()
	if hash != b.Hash {
		return false
	}

	return pow.LeadingZeros(difficulty)(hash)
}

// ValidateGenesis checks the block can serve as the first block of a chain.
func (b Block) ValidateGenesis(difficulty uint) error {
	if b.Index != 0 {
		return fmt.Errorf("genesis block must have index 0, got %d", b.Index)
	}

	if b.PreviousHash != signature.ZeroHash {
		return fmt.Errorf("genesis block must reference the zero hash, got %s", b.PreviousHash)
	}

	if !b.VerifyPOW(difficulty) {
		return fmt.Errorf("genesis block %s has an invalid hash", b.Hash)
	}

	for i, entry := range b.Entries {
		if entry.Type != EntryReward || entry.Reward.Reason.Kind != ReasonInitial {
			return fmt.Errorf("genesis entry %d is not an initial reward", i)
		}
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("genesis entry %d: %w", i, err)
		}
	}

	return nil
}

// ValidateBlock takes a block and validates it to be the successor of the
// previous block.
func (b Block) ValidateBlock(prevBlock Block, difficulty uint, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Index)

	nextIndex := prevBlock.Index + 1
	if b.Index != nextIndex {
		return fmt.Errorf("this block is not the next number, got %d, exp %d", b.Index, nextIndex)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Index)

	if b.PreviousHash != prevBlock.Hash {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.PreviousHash, prevBlock.Hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Index)

	if !b.VerifyPOW(difficulty) {
		return fmt.Errorf("%s invalid block hash", b.Hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: entries are valid", b.Index)

	if len(b.Entries) == 0 {
		return errors.New("block holds no entries")
	}

	for i, entry := range b.Entries {
		if entry.Type == EntryReward {
			if entry.Reward.Reason.Kind != ReasonMine {
				return fmt.Errorf("entry %d: only mining rewards can follow genesis", i)
			}
			if entry.Reward.Reason.Block != nil && *entry.Reward.Reason.Block != b.Index {
				return fmt.Errorf("entry %d: mining reward references block %d", i, *entry.Reward.Reason.Block)
			}
		}
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	return nil
}
