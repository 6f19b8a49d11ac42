package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pocledger/pocledger/foundation/blockchain/keys"
	"github.com/spf13/cobra"
)

type event struct {
	BlockIndex   uint64  `json:"block_index"`
	Direction    string  `json:"direction"`
	Type         string  `json:"type"`
	Counterparty string  `json:"counterparty"`
	Amount       float64 `json:"amount"`
	TimeStamp    int64   `json:"timestamp"`
	Reason       string  `json:"reason"`
}

type walletInfo struct {
	Address      string  `json:"address"`
	Name         string  `json:"name"`
	Balance      float64 `json:"balance"`
	Transactions []event `json:"transactions"`
}

var balanceCmd = &cobra.Command{
	Use:     "balance",
	Aliases: []string{"inspect"},
	Short:   "Print the balance and history of the wallet",
	RunE:    balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	kp, err := keys.Load(getWalletPath())
	if err != nil {
		return err
	}

	resp, err := http.Get(fmt.Sprintf("%s/v1/wallets/info/%s", nodeURL, kp.Address()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}

	var info walletInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return err
	}

	printWalletInfo(cmd.OutOrStdout(), info)

	return nil
}

// printWalletInfo writes the balance followed by one line per event. Credits
// are prefixed with + and debits with -.
func printWalletInfo(w io.Writer, info walletInfo) {
	fmt.Fprintf(w, "Address: %s\n", info.Address)
	if info.Name != "" && info.Name != info.Address {
		fmt.Fprintf(w, "Name:    %s\n", info.Name)
	}
	fmt.Fprintf(w, "Balance: %v\n", info.Balance)

	if len(info.Transactions) == 0 {
		return
	}

	fmt.Fprintln(w)
	for _, ev := range info.Transactions {
		sign := "+"
		if ev.Direction == "debit" {
			sign = "-"
		}

		what := ev.Counterparty
		if ev.Type == "reward" {
			what = "reward " + ev.Reason
		}

		ts := time.UnixMilli(ev.TimeStamp).UTC().Format(time.RFC3339)
		fmt.Fprintf(w, "%s%v\t%s\tblock %d\t%s\n", sign, ev.Amount, ts, ev.BlockIndex, what)
	}
}

// responseError converts a failed node response into an error.
func responseError(resp *http.Response) error {
	var er struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error == "" {
		return fmt.Errorf("node responded %s", resp.Status)
	}

	return fmt.Errorf("node responded %s: %s", resp.Status, er.Error)
}
