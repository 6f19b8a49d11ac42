package keys

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pocledger/pocledger/foundation/blockchain/database"
)

// Record is the wallet file representation of a locked key pair.
type Record struct {
	PublicKey  string           `json:"public_key"`
	PrivateKey string           `json:"private_key"`
	Address    database.Address `json:"address"`
}

// Record exports the key pair. Only locked key pairs can be exported.
func (kp KeyPair) Record() (Record, error) {
	if !kp.encrypted {
		return Record{}, fmt.Errorf("%w: key pair must be locked before export", ErrInvalidState)
	}

	rec := Record{
		PublicKey:  hexutil.Encode(kp.publicKey),
		PrivateKey: hexutil.Encode(kp.privateKey),
		Address:    kp.Address(),
	}

	return rec, nil
}

// FromRecord imports a locked key pair from its wallet file representation.
func FromRecord(rec Record) (KeyPair, error) {
	pub, err := hexutil.Decode(rec.PublicKey)
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: public key: %w", ErrCorruptKey, err)
	}

	if _, err := crypto.UnmarshalPubkey(pub); err != nil {
		return KeyPair{}, fmt.Errorf("%w: public key: %w", ErrCorruptKey, err)
	}

	doc, err := hexutil.Decode(rec.PrivateKey)
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: private key: %w", ErrCorruptKey, err)
	}

	if !json.Valid(doc) {
		return KeyPair{}, fmt.Errorf("%w: private key is not an encrypted document", ErrCorruptKey)
	}

	if database.PublicKeyToAddress(pub) != rec.Address {
		return KeyPair{}, fmt.Errorf("%w: address does not belong to the public key", ErrCorruptKey)
	}

	kp := KeyPair{
		publicKey:  pub,
		privateKey: bytes.Clone(doc),
		encrypted:  true,
	}

	return kp, nil
}

// =============================================================================

// Save writes the locked key pair to the wallet file at path.
func Save(path string, kp KeyPair) error {
	rec, err := kp.Record()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Load reads a locked key pair from the wallet file at path.
func Load(path string) (KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return KeyPair{}, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return KeyPair{}, fmt.Errorf("%w: %w", ErrCorruptKey, err)
	}

	return FromRecord(rec)
}
