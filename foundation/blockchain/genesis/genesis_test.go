package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Load(t *testing.T) {
	owner := database.PublicKeyToAddress([]byte("kennedy"))

	t.Log("Given the need to load the genesis file.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the file is valid.", testID)
		{
			doc := `{
				"date": "2024-01-01T00:00:00Z",
				"trans_per_block": 3,
				"difficulty": 2,
				"mining_reward": 0,
				"initial_capital": 50,
				"owners": ["` + string(owner) + `"]
			}`

			path := filepath.Join(t.TempDir(), "genesis.json")
			if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write the file : %s", failed, testID, err)
			}

			gen, err := genesis.Load(path)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the file : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to load the file.", success, testID)

			entries := gen.Rewards()
			if len(entries) != 1 || entries[0].Reward.To != owner || entries[0].Reward.Amount != 50 {
				t.Fatalf("\t%s\tTest %d:\tShould get one initial reward for the owner : %+v", failed, testID, entries)
			}
			t.Logf("\t%s\tTest %d:\tShould get one initial reward for the owner.", success, testID)

			if entries[0].Reward.TimeStamp != 1704067200000 {
				t.Fatalf("\t%s\tTest %d:\tShould stamp the reward with the genesis date : %d", failed, testID, entries[0].Reward.TimeStamp)
			}
			t.Logf("\t%s\tTest %d:\tShould stamp the reward with the genesis date.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the settings are invalid.", testID)
		{
			bad := []genesis.Genesis{
				{TransPerBlock: 0},
				{TransPerBlock: 3, InitialCapital: 0, Owners: []database.Address{owner}},
				{TransPerBlock: 3, InitialCapital: 10, Owners: []database.Address{"bill"}},
				{TransPerBlock: 3, InitialCapital: 10, Owners: []database.Address{owner, owner}},
			}

			for i, gen := range bad {
				if err := gen.Validate(); err == nil {
					t.Fatalf("\t%s\tTest %d:\tShould reject settings %d.", failed, testID, i)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould reject invalid settings.", success, testID)
		}
	}
}
