package ledger

import (
	"context"
	"fmt"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
)

// SealBlock takes a snapshot of the pending queue, performs the proof of work
// for a block holding it and appends the block to the chain. The proof of
// work runs without the state lock. On commit the chain tail is checked again
// and the whole attempt is retried when it moved.
func (l *Ledger) SealBlock(ctx context.Context) (database.Block, error) {
	l.sealMu.Lock()
	defer l.sealMu.Unlock()

	return l.seal(ctx)
}

// sealIfFull seals a block only when the pending queue still holds a full
// block once the seal lock is acquired. It reports false when another seal
// drained the queue below the threshold in the meantime.
func (l *Ledger) sealIfFull(ctx context.Context) (database.Block, bool, error) {
	l.sealMu.Lock()
	defer l.sealMu.Unlock()

	l.mu.RLock()
	count := l.mempool.Count()
	l.mu.RUnlock()

	if count < int(l.genesis.TransPerBlock) {
		return database.Block{}, false, nil
	}

	block, err := l.seal(ctx)
	if err != nil {
		return database.Block{}, false, err
	}

	return block, true, nil
}

// seal runs the snapshot, search and commit cycle until it commits. The
// caller must hold sealMu.
func (l *Ledger) seal(ctx context.Context) (database.Block, error) {
	for attempt := 1; attempt <= maxCommitRetries; attempt++ {
		block, committed, err := l.sealAttempt(ctx)
		if err != nil {
			return database.Block{}, err
		}

		if committed {
			return block, nil
		}

		l.evHandler("ledger: SealBlock: RETRY: attempt[%d]: chain tail moved", attempt)
	}

	return database.Block{}, ErrSealConflict
}

// sealAttempt runs a single snapshot, search and commit cycle. It reports
// false without an error when the chain tail changed during the search.
func (l *Ledger) sealAttempt(ctx context.Context) (database.Block, bool, error) {
	l.mu.RLock()
	if l.halted != nil {
		l.mu.RUnlock()
		return database.Block{}, false, l.halted
	}
	snapshot := l.mempool.Copy()
	prevBlock := l.chain[len(l.chain)-1]
	l.mu.RUnlock()

	if len(snapshot) == 0 {
		return database.Block{}, false, ErrNoTransactions
	}

	l.evHandler("ledger: SealBlock: MINING: started: prevBlk[%d]: trans[%d]", prevBlock.Index, len(snapshot))

	entries := make([]database.Entry, 0, len(snapshot)+1)
	for _, tx := range snapshot {
		entries = append(entries, database.NewTxEntry(tx))
	}

	candidate := database.NewBlock(prevBlock, entries)
	if l.beneficiary != "" && l.genesis.MiningReward > 0 {
		reward := database.NewMiningReward(l.beneficiary, l.genesis.MiningReward, candidate.Index, candidate.TimeStamp)
		candidate.Entries = append(candidate.Entries, database.NewRewardEntry(reward))
	}

	ctx, cancel := context.WithTimeout(ctx, l.sealTimeout)
	defer cancel()

	block, err := candidate.Seal(ctx, uint(l.genesis.Difficulty), l.maxAttempts, l.evHandler)
	if err != nil {
		return database.Block{}, false, fmt.Errorf("seal block %d: %w", candidate.Index, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.halted != nil {
		return database.Block{}, false, l.halted
	}

	if tail := l.chain[len(l.chain)-1]; tail.Hash != prevBlock.Hash {
		return database.Block{}, false, nil
	}

	l.evHandler("ledger: SealBlock: MINING: write to storage: blk[%d]", block.Index)

	if err := l.storage.Write(block); err != nil {
		return database.Block{}, false, fmt.Errorf("write block %d: %w", block.Index, err)
	}

	l.chain = append(l.chain, block)
	for _, tx := range snapshot {
		l.sealed[tx.ID()] = struct{}{}
	}
	l.mempool.Delete(snapshot)

	l.evHandler("ledger: SealBlock: MINING: SEALED: blk[%d]: hash[%s]: trans[%d]", block.Index, block.Hash, len(snapshot))

	return block, true, nil
}
