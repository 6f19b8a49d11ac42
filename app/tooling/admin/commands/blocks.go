package commands

import (
	"fmt"
	"io"

	"github.com/pocledger/pocledger/foundation/blockchain/ledger"
)

// Blocks writes a summary of the blocks with index in [start, end).
func Blocks(w io.Writer, l *ledger.Ledger, start string, end string) error {
	for _, block := range l.BlocksInRange(start, end) {
		fmt.Fprintf(w, "Block: %d  Hash: %s  Prev: %s  Nonce: %d  Entries: %d\n",
			block.Index, block.Hash, block.PreviousHash, block.Nonce, len(block.Entries))

		for _, entry := range block.Entries {
			fmt.Fprintf(w, "  %s\n", entry)
		}
	}

	return nil
}

// Verify re-verifies the whole chain.
func Verify(w io.Writer, l *ledger.Ledger) error {
	if err := l.VerifyChain(); err != nil {
		return err
	}

	fmt.Fprintf(w, "Chain is valid: %d blocks\n", l.BlockCount())

	return nil
}
