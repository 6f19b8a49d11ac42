package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount float64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign a transaction and submit it to the node",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address receiving the amount.")
	sendCmd.Flags().Float64VarP(&amount, "amount", "a", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}

func sendRun(cmd *cobra.Command, args []string) error {
	toAddress, err := database.ToAddress(to)
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}

	kp, err := unlockWallet()
	if err != nil {
		return err
	}

	tx, err := kp.NewTx(toAddress, amount, 0)
	if err != nil {
		return err
	}

	signedTx, err := kp.SignTx(tx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(signedTx)
	if err != nil {
		return err
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/submit", nodeURL), "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Transaction %s submitted\n", signedTx.ID())

	return nil
}
