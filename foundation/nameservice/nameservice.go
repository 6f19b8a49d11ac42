// Package nameservice reads a folder of wallet files and creates a name
// service lookup for the addresses they hold.
package nameservice

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/keys"
)

// WalletExt is the file extension of a wallet file.
const WalletExt = ".wallet"

// NameService maintains a map of addresses for name lookup.
type NameService struct {
	addresses map[database.Address]string
}

// New constructs a name service with the addresses of every wallet file
// found under root. The file name without extension becomes the name.
func New(root string) (*NameService, error) {
	ns := NameService{
		addresses: make(map[database.Address]string),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != WalletExt {
			return nil
		}

		kp, err := keys.Load(fileName)
		if err != nil {
			return fmt.Errorf("loading %s: %w", fileName, err)
		}

		ns.addresses[kp.Address()] = strings.TrimSuffix(filepath.Base(fileName), WalletExt)

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified address.
func (ns *NameService) Lookup(address database.Address) string {
	name, exists := ns.addresses[address]
	if !exists {
		return string(address)
	}
	return name
}

// Copy returns a copy of the map of names and addresses.
func (ns *NameService) Copy() map[database.Address]string {
	cpy := make(map[database.Address]string, len(ns.addresses))
	for address, name := range ns.addresses {
		cpy[address] = name
	}
	return cpy
}
