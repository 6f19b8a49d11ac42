// Package cmd contains wallet app
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	walletExtension = ".wallet"
	passphraseEnv   = "POC_PASSPHRASE"
)

var (
	walletName string
	walletPath string
	passphrase string
	nodeURL    string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&walletName, "wallet", "w", "private", "Name of the wallet file.")
	rootCmd.PersistentFlags().StringVarP(&walletPath, "wallet-path", "p", "zblock/wallets/", "Path to the directory with wallet files.")
	rootCmd.PersistentFlags().StringVar(&passphrase, "passphrase", "", "Passphrase of the wallet, defaults to $"+passphraseEnv+".")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "url", "u", "http://localhost:8080", "Url of the node.")
}

var rootCmd = &cobra.Command{
	Use:           "wallet",
	Short:         "Simple wallet for the PoC ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command selected on the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func getWalletPath() string {
	name := walletName
	if !strings.HasSuffix(name, walletExtension) {
		name += walletExtension
	}

	return filepath.Join(walletPath, name)
}

func getPassphrase() (string, error) {
	if passphrase != "" {
		return passphrase, nil
	}

	if p := os.Getenv(passphraseEnv); p != "" {
		return p, nil
	}

	return "", errors.New("a passphrase is required, use --passphrase or $" + passphraseEnv)
}
