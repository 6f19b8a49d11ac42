package public

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/ledger"
	"github.com/pocledger/pocledger/foundation/validate"
)

func init() {
	isAddress := func(s string) bool {
		return database.Address(s).IsAddress()
	}

	if err := validate.RegisterStringTag("address", "must be a valid ledger address", isAddress); err != nil {
		panic(err)
	}
}

// submitTx is the request body of a transaction submission.
type submitTx struct {
	From      string  `json:"from" validate:"required,address"`
	To        string  `json:"to" validate:"required,address"`
	Amount    float64 `json:"amount" validate:"gt=0"`
	TimeStamp uint64  `json:"timestamp" validate:"required"`
	PublicKey string  `json:"public_key" validate:"required,hexadecimal"`
	Signature string  `json:"signature" validate:"required,hexadecimal"`
}

// toSignedTx converts the request into a ledger transaction.
func (s submitTx) toSignedTx() (database.SignedTx, error) {
	pub, err := hexutil.Decode(s.PublicKey)
	if err != nil {
		return database.SignedTx{}, fmt.Errorf("%w: public_key: %w", database.ErrValidation, err)
	}

	sig, err := hexutil.Decode(s.Signature)
	if err != nil {
		return database.SignedTx{}, fmt.Errorf("%w: signature: %w", database.ErrValidation, err)
	}

	tx := database.SignedTx{
		Tx: database.Tx{
			Amount:    s.Amount,
			From:      database.Address(s.From),
			PublicKey: pub,
			TimeStamp: s.TimeStamp,
			To:        database.Address(s.To),
		},
		Signature: sig,
	}

	return tx, nil
}

type pendingTx struct {
	ID        string           `json:"id"`
	From      database.Address `json:"from"`
	FromName  string           `json:"from_name"`
	To        database.Address `json:"to"`
	ToName    string           `json:"to_name"`
	Amount    float64          `json:"amount"`
	TimeStamp uint64           `json:"timestamp"`
	Signature string           `json:"signature"`
}

type blockCount struct {
	BlockCount int `json:"block_count"`
}

type walletInfo struct {
	Address      database.Address `json:"address"`
	Name         string           `json:"name"`
	Balance      float64          `json:"balance"`
	Transactions []ledger.Event   `json:"transactions"`
}

type peerCount struct {
	Count int `json:"count"`
}
