package database

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pocledger/pocledger/foundation/blockchain/signature"
)

// Tx is the transactional information between two parties.
//
// The fields are declared in lexicographic order of their json keys. The
// json encoding of this struct is the canonical form that is signed and
// hashed, so the field set, names and order must never change.
type Tx struct {
	Amount    float64       `json:"amount"`     // Value moved from the sender to the receiver.
	From      Address       `json:"from"`       // Address derived from the public key.
	PublicKey hexutil.Bytes `json:"public_key"` // Uncompressed secp256k1 public key of the sender.
	TimeStamp uint64        `json:"timestamp"`  // Unix milliseconds the transaction was created.
	To        Address       `json:"to"`         // Address receiving the amount.
}

// NewTx constructs a new transaction. A zero timestamp is replaced with
// the current time.
func NewTx(from Address, publicKey []byte, to Address, amount float64, timestamp uint64) (Tx, error) {
	if timestamp == 0 {
		timestamp = uint64(time.Now().UTC().UnixMilli())
	}

	tx := Tx{
		Amount:    amount,
		From:      from,
		PublicKey: publicKey,
		TimeStamp: timestamp,
		To:        to,
	}

	if err := tx.validate(); err != nil {
		return Tx{}, err
	}

	return tx, nil
}

// CanonicalBytes returns the fixed byte representation of the transaction
// used for signing and verification.
func (tx Tx) CanonicalBytes() []byte {
	data, err := json.Marshal(tx)
	if err != nil {

		// Only a non-finite amount can fail to marshal and those never
		// pass validation.
		return nil
	}

	return data
}

// Sign uses the specified private key to sign the transaction. The private
// key must belong to the public key recorded in the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {
	if err := tx.validate(); err != nil {
		return SignedTx{}, err
	}

	if privateKey == nil {
		return SignedTx{}, fmt.Errorf("%w: missing private key", ErrValidation)
	}

	if !bytes.Equal(crypto.FromECDSAPub(&privateKey.PublicKey), tx.PublicKey) {
		return SignedTx{}, fmt.Errorf("%w: private key does not match public key", ErrValidation)
	}

	sig, err := signature.Sign(tx.CanonicalBytes(), privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	signedTx := SignedTx{
		Tx:        tx,
		Signature: sig,
	}

	return signedTx, nil
}

// validate performs the field checks that do not require a signature.
func (tx Tx) validate() error {
	if math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) {
		return fmt.Errorf("%w: amount must be a finite number", ErrValidation)
	}

	if tx.Amount <= 0 {
		return fmt.Errorf("%w: amount must be greater than zero, got %v", ErrValidation, tx.Amount)
	}

	if !tx.To.IsAddress() {
		return fmt.Errorf("%w: to address %q is not properly formatted", ErrValidation, tx.To)
	}

	if !tx.From.IsAddress() {
		return fmt.Errorf("%w: from address %q is not properly formatted", ErrValidation, tx.From)
	}

	if len(tx.PublicKey) == 0 {
		return fmt.Errorf("%w: missing public key", ErrValidation)
	}

	if PublicKeyToAddress(tx.PublicKey) != tx.From {
		return fmt.Errorf("%w: from address does not belong to the public key", ErrValidation)
	}

	return nil
}

// =============================================================================

// SignedTx is a signed version of the transaction. This is how clients like
// a wallet provide transactions for inclusion into the ledger.
type SignedTx struct {
	Tx
	Signature hexutil.Bytes `json:"signature"` // Signature in the [R|S|V] format.
}

// Validate checks the fields of the transaction and the shape of the
// signature. It does not check the signature itself, use Verify for that.
func (tx SignedTx) Validate() error {
	if err := tx.Tx.validate(); err != nil {
		return err
	}

	if len(tx.Signature) != signature.SignatureLength {
		return fmt.Errorf("%w: signature must be %d bytes, got %d", ErrValidation, signature.SignatureLength, len(tx.Signature))
	}

	return nil
}

// Verify recomputes the canonical bytes and checks the signature against
// the public key of the transaction. A mismatch is reported as false.
func (tx SignedTx) Verify() bool {
	return signature.Verify(tx.CanonicalBytes(), tx.Signature, tx.PublicKey)
}

// ID returns a unique identifier for the transaction. Two submissions of the
// same signed content share the same id.
func (tx SignedTx) ID() string {
	return signature.HashBytes(tx.CanonicalBytes())
}

// SignatureString returns the signature as a string.
func (tx SignedTx) SignatureString() string {
	return signature.SignatureString(tx.Signature)
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	return fmt.Sprintf("%s:%d", tx.From, tx.TimeStamp)
}
