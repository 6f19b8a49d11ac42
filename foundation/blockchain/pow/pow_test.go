package pow_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pocledger/pocledger/foundation/blockchain/pow"
	"github.com/pocledger/pocledger/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func hashFn(payload string) pow.HashFunc {
	return func(nonce uint64) string {
		return signature.HashBytes(fmt.Appendf(nil, "%s:%d", payload, nonce))
	}
}

func Test_LeadingZeros(t *testing.T) {
	type table struct {
		name       string
		difficulty uint
		hash       string
		exp        bool
	}

	tt := []table{
		{name: "zero-difficulty", difficulty: 0, hash: "0xabc", exp: true},
		{name: "prefix-ignored", difficulty: 2, hash: "0x00ab", exp: true},
		{name: "no-prefix", difficulty: 2, hash: "00ab", exp: true},
		{name: "not-enough", difficulty: 3, hash: "0x00ab", exp: false},
		{name: "short-hash", difficulty: 4, hash: "0x00", exp: false},
	}

	t.Log("Given the need to validate the difficulty predicate.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling %s.", testID, tst.name)
				{
					got := pow.LeadingZeros(tst.difficulty)(tst.hash)
					if got != tst.exp {
						t.Fatalf("\t%s\tTest %d:\tShould get %v for %s at difficulty %d : got %v", failed, testID, tst.exp, tst.hash, tst.difficulty, got)
					}
					t.Logf("\t%s\tTest %d:\tShould get %v for %s at difficulty %d.", success, testID, tst.exp, tst.hash, tst.difficulty)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_FindNonce(t *testing.T) {
	t.Log("Given the need to find a nonce for a payload.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen searching at difficulty 2.", testID)
		{
			solved := pow.LeadingZeros(2)
			fn := hashFn("payload")

			nonce, hash, err := pow.FindNonce(context.Background(), fn, solved, 0, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to find a nonce : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to find a nonce.", success, testID)

			if !solved(hash) {
				t.Fatalf("\t%s\tTest %d:\tShould get a hash satisfying the predicate : %s", failed, testID, hash)
			}
			t.Logf("\t%s\tTest %d:\tShould get a hash satisfying the predicate.", success, testID)

			if fn(nonce) != hash {
				t.Fatalf("\t%s\tTest %d:\tShould get the hash for the returned nonce.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get the hash for the returned nonce.", success, testID)

			for n := range nonce {
				if solved(fn(n)) {
					t.Fatalf("\t%s\tTest %d:\tShould get the first solving nonce, %d also solves.", failed, testID, n)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould get the first solving nonce.", success, testID)
		}
	}
}

func Test_FindNonceBounds(t *testing.T) {
	never := func(string) bool { return false }

	t.Log("Given the need to bound the nonce search.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the attempt budget runs out.", testID)
		{
			_, _, err := pow.FindNonce(context.Background(), hashFn("x"), never, 100, nil)
			if !errors.Is(err, pow.ErrExhausted) {
				t.Fatalf("\t%s\tTest %d:\tShould get ErrExhausted : got %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get ErrExhausted.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the context deadline passes.", testID)
		{
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()

			_, _, err := pow.FindNonce(ctx, hashFn("x"), never, 0, nil)
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("\t%s\tTest %d:\tShould get the context error : got %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get the context error.", success, testID)
		}
	}
}
