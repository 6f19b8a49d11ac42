package v1

import (
	"errors"
	"net/http"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/keys"
	"github.com/pocledger/pocledger/foundation/blockchain/ledger"
	"github.com/pocledger/pocledger/foundation/blockchain/pow"
)

// NewLedgerError wraps an error returned by the ledger with the HTTP status
// that matches its kind. Errors of an unknown kind are returned untouched so
// they are reported as internal errors.
func NewLedgerError(err error) error {
	switch {
	case errors.Is(err, database.ErrSignatureInvalid):
		return NewRequestError(err, http.StatusForbidden)

	case errors.Is(err, database.ErrValidation), errors.Is(err, keys.ErrCorruptKey):
		return NewRequestError(err, http.StatusBadRequest)

	case errors.Is(err, ledger.ErrInsufficientBalance):
		return NewRequestError(err, http.StatusUnprocessableEntity)

	case errors.Is(err, ledger.ErrNoTransactions), errors.Is(err, ledger.ErrSealConflict):
		return NewRequestError(err, http.StatusConflict)

	case errors.Is(err, ledger.ErrChainIntegrity):
		return NewRequestError(err, http.StatusServiceUnavailable)

	case errors.Is(err, pow.ErrExhausted):
		return NewRequestError(err, http.StatusServiceUnavailable)
	}

	return err
}
