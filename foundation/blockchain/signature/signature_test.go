package signature_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pocledger/pocledger/foundation/blockchain/signature"
)

const pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

// =============================================================================

func Test_Signing(t *testing.T) {
	data := []byte(`{"name":"Bill"}`)

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}
	pub := crypto.FromECDSAPub(&pk.PublicKey)

	sig, err := signature.Sign(data, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if len(sig) != signature.SignatureLength {
		t.Fatalf("Should get back a %d byte signature, got %d", signature.SignatureLength, len(sig))
	}

	if !signature.Verify(data, sig, pub) {
		t.Fatalf("Should be able to verify the signature.")
	}
}

func Test_TamperedData(t *testing.T) {
	data := []byte(`{"amount":20,"to":"bob"}`)

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}
	pub := crypto.FromECDSAPub(&pk.PublicKey)

	sig, err := signature.Sign(data, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	for i := range data {
		tampered := make([]byte, len(data))
		copy(tampered, data)
		tampered[i] ^= 0x01

		if signature.Verify(tampered, sig, pub) {
			t.Fatalf("Should not verify with byte %d of the data flipped.", i)
		}
	}

	for i := range sig {
		tampered := make([]byte, len(sig))
		copy(tampered, sig)
		tampered[i] ^= 0x01

		if signature.Verify(data, tampered, pub) {
			t.Fatalf("Should not verify with byte %d of the signature flipped.", i)
		}
	}
}

func Test_WrongKey(t *testing.T) {
	data := []byte(`{"name":"Bill"}`)

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	other, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign(data, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if signature.Verify(data, sig, crypto.FromECDSAPub(&other.PublicKey)) {
		t.Fatalf("Should not verify against a different public key.")
	}
}

func Test_Hash(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}
	hash := "0x0f6887ac85101d6d6425a617edf35bd721b5f619fb92c36c3d2224e3bdb0ee5a"

	h := signature.Hash(value)
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the right hash: %s", h[:6])
	}

	h = signature.Hash(value)
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the same hash twice.")
	}
}
