package ledger

import (
	"context"
	"fmt"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
)

// SubmitTransaction validates the signed transaction, checks the sender can
// afford it and adds it to the pending queue. When the queue reaches the
// configured size a block is sealed before returning. A failure to seal is
// reported through the event handler and leaves the transaction pending.
func (l *Ledger) SubmitTransaction(ctx context.Context, tx database.SignedTx) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	if !tx.Verify() {
		return fmt.Errorf("%w: transaction from %s", database.ErrSignatureInvalid, tx.From)
	}

	count, err := l.enqueue(tx)
	if err != nil {
		return err
	}

	l.evHandler("ledger: SubmitTransaction: tx[%s]: pending[%d]", tx, count)

	if count < int(l.genesis.TransPerBlock) {
		return nil
	}

	l.evHandler("ledger: SubmitTransaction: pending[%d]: threshold reached, sealing", count)

	block, sealed, err := l.sealIfFull(ctx)
	switch {
	case err != nil:
		l.evHandler("ledger: SubmitTransaction: SealBlock: ERROR: %s", err)
	case sealed:
		l.evHandler("ledger: SubmitTransaction: sealed blk[%d]", block.Index)
	}

	return nil
}

// enqueue performs the duplicate and balance checks and adds the transaction
// as one step under the state lock.
func (l *Ledger) enqueue(tx database.SignedTx) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.halted != nil {
		return 0, l.halted
	}

	id := tx.ID()
	if _, exists := l.sealed[id]; exists || l.mempool.Contains(id) {
		return 0, fmt.Errorf("%w: duplicate transaction %s", database.ErrValidation, id)
	}

	balance := replayBalance(l.chain, tx.From) - l.mempool.Debits(tx.From)
	if tx.Amount > balance+balanceTolerance {
		return 0, fmt.Errorf("%w: %s has %v available, needs %v", ErrInsufficientBalance, tx.From, balance, tx.Amount)
	}

	return l.mempool.Add(tx)
}
