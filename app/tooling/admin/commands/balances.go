package commands

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/ledger"
)

// Balances writes the balance of every address, or the balance and history
// of one address when it is specified.
func Balances(w io.Writer, l *ledger.Ledger, address string) error {
	fmt.Fprintf(w, "LatestBlockHash: %s\n\n", l.LatestBlock().Hash)

	if address != "" {
		addr, err := database.ToAddress(address)
		if err != nil {
			return err
		}

		info := l.AddressInfo(addr)
		fmt.Fprintf(w, "Address: %s  Balance: %v\n", info.Address, info.Balance)
		for _, ev := range info.Transactions {
			sign := "+"
			if ev.Direction == ledger.Debit {
				sign = "-"
			}
			fmt.Fprintf(w, "  %s%v  block: %d  type: %s  counterparty: %s\n", sign, ev.Amount, ev.BlockIndex, ev.Type, ev.Counterparty)
		}

		return nil
	}

	balances := l.Balances()

	addresses := make([]database.Address, 0, len(balances))
	for addr := range balances {
		addresses = append(addresses, addr)
	}
	slices.SortFunc(addresses, func(a, b database.Address) int {
		return cmp.Compare(a, b)
	})

	for _, addr := range addresses {
		fmt.Fprintf(w, "Address: %s  Balance: %v\n", addr, balances[addr])
	}

	return nil
}
