// This program is the wallet for the ledger. It manages wallet files and
// talks to a node over its public API.
package main

import "github.com/pocledger/pocledger/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
