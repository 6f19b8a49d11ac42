package cmd

import (
	"fmt"

	"github.com/pocledger/pocledger/foundation/blockchain/keys"
	"github.com/spf13/cobra"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the address of the wallet",
	RunE:  addressRun,
}

func init() {
	rootCmd.AddCommand(addressCmd)
}

func addressRun(cmd *cobra.Command, args []string) error {
	kp, err := keys.Load(getWalletPath())
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), kp.Address())

	return nil
}
