package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pocledger/pocledger/foundation/blockchain/keys"
	"github.com/spf13/cobra"
)

var (
	seed      string
	lightKDF  bool
	overwrite bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key pair and store it locked in a wallet file",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&seed, "seed", "s", "", "Mnemonic phrase to derive the key pair from.")
	generateCmd.Flags().BoolVar(&lightKDF, "light", false, "Use the light key derivation settings.")
	generateCmd.Flags().BoolVar(&overwrite, "force", false, "Overwrite an existing wallet file.")
}

func generateRun(cmd *cobra.Command, args []string) error {
	pass, err := getPassphrase()
	if err != nil {
		return err
	}

	path := getWalletPath()
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("wallet %s already exists", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	var kp keys.KeyPair
	switch seed {
	case "":
		kp, err = keys.Generate()
	default:
		kp, err = keys.FromSeed(seed)
	}
	if err != nil {
		return err
	}

	kdf := keys.StandardKDF
	if lightKDF {
		kdf = keys.LightKDF
	}

	locked, err := kp.Lock(pass, kdf)
	if err != nil {
		return err
	}

	if err := keys.Save(path, locked); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wallet: %s\nAddress: %s\n", path, locked.Address())

	return nil
}
