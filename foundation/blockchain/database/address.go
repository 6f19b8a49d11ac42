package database

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"regexp"
)

// AddressSuffix is appended to every derived address so ledger addresses
// can be told apart from arbitrary strings.
const AddressSuffix = ".poc"

// addressBodyLength is the number of base64url characters kept from the
// hash of the public key.
const addressBodyLength = 35

var addressRE = regexp.MustCompile(`^[A-Za-z0-9_-]{35}\.poc$`)

// =============================================================================

// Address represents the public identifier of a wallet. It is derived from
// the public key and is never stored independently of it.
type Address string

// ToAddress converts a string to an address and validates the string is
// formatted correctly.
func ToAddress(s string) (Address, error) {
	a := Address(s)
	if !a.IsAddress() {
		return "", errors.New("invalid address format")
	}

	return a, nil
}

// PublicKeyToAddress derives the address for the specified serialized public
// key. The same public key always produces the same address.
func PublicKeyToAddress(publicKey []byte) Address {
	hash := sha256.Sum256(publicKey)
	body := base64.RawURLEncoding.EncodeToString(hash[:])

	return Address(body[:addressBodyLength] + AddressSuffix)
}

// IsAddress verifies whether the underlying data represents a valid address.
func (a Address) IsAddress() bool {
	return addressRE.MatchString(string(a))
}

// String implements the fmt.Stringer interface.
func (a Address) String() string {
	return string(a)
}
