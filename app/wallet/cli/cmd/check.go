package cmd

import (
	"fmt"

	"github.com/pocledger/pocledger/foundation/blockchain/keys"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the passphrase unlocks the wallet",
	RunE:  checkRun,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func checkRun(cmd *cobra.Command, args []string) error {
	kp, err := unlockWallet()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wallet %s unlocked\n", kp.Address())

	return nil
}

// unlockWallet loads the wallet file and unlocks it with the passphrase.
func unlockWallet() (keys.KeyPair, error) {
	pass, err := getPassphrase()
	if err != nil {
		return keys.KeyPair{}, err
	}

	kp, err := keys.Load(getWalletPath())
	if err != nil {
		return keys.KeyPair{}, err
	}

	return kp.Unlock(pass)
}
