// Package keys manages the key pairs that own ledger addresses. A key pair
// can be locked with a passphrase so the private key is only ever exported
// in encrypted form.
package keys

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/pocledger/pocledger/foundation/blockchain/database"
)

// Set of error variables for key management.
var (
	ErrCryptoBackend     = errors.New("crypto backend failure")
	ErrInvalidPassphrase = errors.New("invalid passphrase")
	ErrInvalidState      = errors.New("invalid key state")
	ErrCorruptKey        = errors.New("corrupt key material")
)

// KDF holds the scrypt parameters used to derive the encryption key from
// a passphrase.
type KDF struct {
	N int
	P int
}

// Set of supported key derivation settings.
var (
	StandardKDF = KDF{N: keystore.StandardScryptN, P: keystore.StandardScryptP}
	LightKDF    = KDF{N: keystore.LightScryptN, P: keystore.LightScryptP}
)

// =============================================================================

// KeyPair represents a secp256k1 key pair. While unlocked the private key is
// the raw 32 byte scalar. While locked it is an encrypted keystore document.
type KeyPair struct {
	publicKey  []byte
	privateKey []byte
	encrypted  bool
}

// Generate produces a fresh unlocked key pair.
func Generate() (KeyPair, error) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %w", ErrCryptoBackend, err)
	}

	return fromECDSA(pk), nil
}

// FromSeed deterministically derives an unlocked key pair from a mnemonic
// phrase. Case and surrounding whitespace in the phrase are ignored.
func FromSeed(phrase string) (KeyPair, error) {
	words := strings.Fields(strings.ToLower(phrase))
	if len(words) == 0 {
		return KeyPair{}, fmt.Errorf("%w: empty seed phrase", ErrCryptoBackend)
	}

	seed := sha256.Sum256([]byte(strings.Join(words, " ")))

	pk, err := crypto.ToECDSA(seed[:])
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %w", ErrCryptoBackend, err)
	}

	return fromECDSA(pk), nil
}

// fromECDSA converts the go-ethereum key into a key pair.
func fromECDSA(pk *ecdsa.PrivateKey) KeyPair {
	return KeyPair{
		publicKey:  crypto.FromECDSAPub(&pk.PublicKey),
		privateKey: crypto.FromECDSA(pk),
	}
}

// PublicKey returns a copy of the serialized public key.
func (kp KeyPair) PublicKey() []byte {
	return bytes.Clone(kp.publicKey)
}

// Encrypted reports whether the private key is locked.
func (kp KeyPair) Encrypted() bool {
	return kp.encrypted
}

// Address returns the ledger address owned by this key pair.
func (kp KeyPair) Address() database.Address {
	return database.PublicKeyToAddress(kp.publicKey)
}

// PrivateKey returns the usable private key. It fails while the key pair
// is locked.
func (kp KeyPair) PrivateKey() (*ecdsa.PrivateKey, error) {
	if kp.encrypted {
		return nil, fmt.Errorf("%w: key pair is locked", ErrInvalidState)
	}

	pk, err := crypto.ToECDSA(kp.privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptKey, err)
	}

	return pk, nil
}

// Lock encrypts the private key with the passphrase.
func (kp KeyPair) Lock(passphrase string, kdf KDF) (KeyPair, error) {
	if kp.encrypted {
		return KeyPair{}, fmt.Errorf("%w: key pair is already locked", ErrInvalidState)
	}

	pk, err := kp.PrivateKey()
	if err != nil {
		return KeyPair{}, err
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %w", ErrCryptoBackend, err)
	}

	key := keystore.Key{
		Id:         id,
		Address:    crypto.PubkeyToAddress(pk.PublicKey),
		PrivateKey: pk,
	}

	doc, err := keystore.EncryptKey(&key, passphrase, kdf.N, kdf.P)
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %w", ErrCryptoBackend, err)
	}

	locked := KeyPair{
		publicKey:  bytes.Clone(kp.publicKey),
		privateKey: doc,
		encrypted:  true,
	}

	return locked, nil
}

// Unlock decrypts the private key with the passphrase. A wrong passphrase
// returns ErrInvalidPassphrase and the key pair stays locked.
func (kp KeyPair) Unlock(passphrase string) (KeyPair, error) {
	if !kp.encrypted {
		return KeyPair{}, fmt.Errorf("%w: key pair is already unlocked", ErrInvalidState)
	}

	key, err := keystore.DecryptKey(kp.privateKey, passphrase)
	switch {
	case errors.Is(err, keystore.ErrDecrypt):
		return KeyPair{}, ErrInvalidPassphrase
	case err != nil:
		return KeyPair{}, fmt.Errorf("%w: %w", ErrCorruptKey, err)
	}

	unlocked := fromECDSA(key.PrivateKey)
	if !bytes.Equal(unlocked.publicKey, kp.publicKey) {
		return KeyPair{}, fmt.Errorf("%w: private key does not match public key", ErrCorruptKey)
	}

	return unlocked, nil
}

// SignTx signs the transaction with the private key of the key pair.
func (kp KeyPair) SignTx(tx database.Tx) (database.SignedTx, error) {
	pk, err := kp.PrivateKey()
	if err != nil {
		return database.SignedTx{}, err
	}

	return tx.Sign(pk)
}

// NewTx constructs a transaction sent from this key pair.
func (kp KeyPair) NewTx(to database.Address, amount float64, timestamp uint64) (database.Tx, error) {
	return database.NewTx(kp.Address(), kp.PublicKey(), to, amount, timestamp)
}
