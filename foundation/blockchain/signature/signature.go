// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros. It is the previous hash
// recorded by the genesis block.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// SignatureLength is the length of a signature in the [R|S|V] format.
const SignatureLength = crypto.SignatureLength

// =============================================================================

// Hash returns a unique string for the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	return HashBytes(data)
}

// HashBytes returns the sha256 of the data as a 0x prefixed hex string.
func HashBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// Sign uses the specified private key to sign the data. The signature is
// returned in the 65 byte [R|S|V] format.
func Sign(data []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, errors.New("missing private key")
	}

	// Prepare the data for signing.
	digest := stamp(data)

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(digest, privateKey)
	if err != nil {
		return nil, err
	}

	// Check the public key extracted from the data and signature matches.
	publicKey, err := crypto.Ecrecover(digest, sig)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(publicKey, crypto.FromECDSAPub(&privateKey.PublicKey)) {
		return nil, errors.New("invalid signature")
	}

	return sig, nil
}

// Verify checks the signature was produced over the data by the private key
// belonging to the specified public key. It never returns an error, a false
// means the signature does not hold.
func Verify(data []byte, sig []byte, publicKey []byte) bool {
	if len(sig) != SignatureLength {
		return false
	}

	// Check the signature values are valid.
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(sig[64], r, s, false) {
		return false
	}

	digest := stamp(data)

	// The recovered key must be the claimed key. This also covers the
	// recovery id which VerifySignature does not look at.
	recovered, err := crypto.Ecrecover(digest, sig)
	if err != nil {
		return false
	}
	if !bytes.Equal(recovered, publicKey) {
		return false
	}

	return crypto.VerifySignature(publicKey, digest, sig[:64])
}

// SignatureString returns the signature as a string.
func SignatureString(sig []byte) string {
	return hexutil.Encode(sig)
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with
// the ledger stamp embedded into the final hash.
func stamp(data []byte) []byte {

	// Hash the data into a 32 byte array. This will provide
	// a data length consistency with all data.
	txHash := crypto.Keccak256(data)

	// This stamp is used so signatures we produce when signing data
	// are always unique to this ledger.
	stamp := []byte("\x19PoC Ledger Signed Message:\n32")

	// Hash the stamp and txHash together in a final 32 byte array
	// that represents the data.
	return crypto.Keccak256(stamp, txHash)
}
