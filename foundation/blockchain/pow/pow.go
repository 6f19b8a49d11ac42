// Package pow implements the proof of work search used to seal blocks.
package pow

import (
	"context"
	"errors"
	"strings"
)

// ErrExhausted is returned when the attempt budget runs out before a
// solution is found.
var ErrExhausted = errors.New("proof of work attempts exhausted")

// reportEvery controls how often progress is reported to the event handler.
const reportEvery = 1_000_000

// HashFunc returns the hash of the candidate payload for the given nonce.
type HashFunc func(nonce uint64) string

// Predicate reports whether a hash satisfies the difficulty rule.
type Predicate func(hash string) bool

// EventHandler defines a function that is called when events occur during
// the search.
type EventHandler func(v string, args ...any)

// =============================================================================

// LeadingZeros returns the predicate requiring the hex form of a hash to
// start with difficulty zero digits. A 0x prefix is not counted.
func LeadingZeros(difficulty uint) Predicate {
	prefix := strings.Repeat("0", int(difficulty))

	return func(hash string) bool {
		hash = strings.TrimPrefix(hash, "0x")
		return strings.HasPrefix(hash, prefix)
	}
}

// FindNonce iterates nonce values from 0 upward until the hash produced by
// hashFn satisfies the predicate. The search stops with the context error
// when the context is done and with ErrExhausted after maxAttempts hashes.
// A maxAttempts of 0 means the search is only bounded by the context.
func FindNonce(ctx context.Context, hashFn HashFunc, solved Predicate, maxAttempts uint64, ev EventHandler) (uint64, string, error) {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("pow: FindNonce: started")
	defer ev("pow: FindNonce: completed")

	var attempts uint64
	for nonce := uint64(0); ; nonce++ {
		if maxAttempts > 0 && attempts >= maxAttempts {
			ev("pow: FindNonce: EXHAUSTED: attempts[%d]", attempts)
			return 0, "", ErrExhausted
		}

		// Did we timeout trying to solve the problem.
		if err := ctx.Err(); err != nil {
			ev("pow: FindNonce: CANCELLED: attempts[%d]", attempts)
			return 0, "", err
		}

		attempts++
		if attempts%reportEvery == 0 {
			ev("pow: FindNonce: attempts[%d]", attempts)
		}

		hash := hashFn(nonce)
		if !solved(hash) {
			continue
		}

		ev("pow: FindNonce: SOLVED: nonce[%d]: hash[%s]: attempts[%d]", nonce, hash, attempts)

		return nonce, hash, nil
	}
}
