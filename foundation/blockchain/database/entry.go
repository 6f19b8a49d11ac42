package database

import (
	"encoding/json"
	"fmt"
	"math"
)

// EntryKind identifies which payload an entry carries.
type EntryKind string

// Set of entry kinds a block can hold.
const (
	EntryTx     EntryKind = "tx"
	EntryReward EntryKind = "reward"
)

// ReasonKind explains why a reward was issued.
type ReasonKind string

// Set of reward reasons.
const (
	ReasonInitial ReasonKind = "INITIAL"
	ReasonMine    ReasonKind = "MINE"
)

// =============================================================================

// Reason records why a reward was created. Block is only set for mining
// rewards and holds the index of the block that was sealed.
type Reason struct {
	Kind  ReasonKind `json:"kind"`
	Block *uint64    `json:"block,omitempty"`
}

// Reward is a synthetic credit used for the genesis capital allocation and
// for mining rewards. It is not signed.
type Reward struct {
	Amount    float64 `json:"amount"`
	Reason    Reason  `json:"reason"`
	TimeStamp uint64  `json:"timestamp"`
	To        Address `json:"to"`
}

// NewInitialReward constructs the reward used to seed an owner with capital.
func NewInitialReward(to Address, amount float64, timestamp uint64) Reward {
	return Reward{
		Amount:    amount,
		Reason:    Reason{Kind: ReasonInitial},
		TimeStamp: timestamp,
		To:        to,
	}
}

// NewMiningReward constructs the reward paid to the beneficiary of a block.
func NewMiningReward(to Address, amount float64, blockIndex uint64, timestamp uint64) Reward {
	return Reward{
		Amount:    amount,
		Reason:    Reason{Kind: ReasonMine, Block: &blockIndex},
		TimeStamp: timestamp,
		To:        to,
	}
}

// Validate checks the reward is well formed.
func (r Reward) Validate() error {
	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) || r.Amount <= 0 {
		return fmt.Errorf("%w: reward amount must be a positive finite number", ErrValidation)
	}

	if !r.To.IsAddress() {
		return fmt.Errorf("%w: reward address %q is not properly formatted", ErrValidation, r.To)
	}

	switch r.Reason.Kind {
	case ReasonInitial:
		if r.Reason.Block != nil {
			return fmt.Errorf("%w: initial reward can't reference a block", ErrValidation)
		}

	case ReasonMine:
		if r.Reason.Block == nil {
			return fmt.Errorf("%w: mining reward must reference a block", ErrValidation)
		}

	default:
		return fmt.Errorf("%w: unknown reward reason %q", ErrValidation, r.Reason.Kind)
	}

	return nil
}

// =============================================================================

// Entry is a single record inside a block. It holds exactly one of a signed
// transaction or a reward, as identified by Type.
type Entry struct {
	Type   EntryKind `json:"type"`
	Tx     *SignedTx `json:"tx,omitempty"`
	Reward *Reward   `json:"reward,omitempty"`
}

// NewTxEntry wraps a signed transaction as a block entry.
func NewTxEntry(tx SignedTx) Entry {
	return Entry{
		Type: EntryTx,
		Tx:   &tx,
	}
}

// NewRewardEntry wraps a reward as a block entry.
func NewRewardEntry(r Reward) Entry {
	return Entry{
		Type:   EntryReward,
		Reward: &r,
	}
}

// UnmarshalJSON implements the json.Unmarshaler interface. It rejects unknown
// kinds and payloads that don't match the declared kind.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type entry Entry

	var en entry
	if err := json.Unmarshal(data, &en); err != nil {
		return err
	}

	ent := Entry(en)
	if err := ent.check(); err != nil {
		return err
	}

	*e = ent
	return nil
}

// Validate checks the entry and its payload.
func (e Entry) Validate() error {
	if err := e.check(); err != nil {
		return err
	}

	switch e.Type {
	case EntryTx:
		if err := e.Tx.Validate(); err != nil {
			return err
		}
		if !e.Tx.Verify() {
			return ErrSignatureInvalid
		}
		return nil

	case EntryReward:
		return e.Reward.Validate()
	}

	return fmt.Errorf("%w: unknown entry type %q", ErrValidation, e.Type)
}

// TimeStamp returns the time recorded on the payload.
func (e Entry) TimeStamp() uint64 {
	switch e.Type {
	case EntryTx:
		return e.Tx.TimeStamp
	case EntryReward:
		return e.Reward.TimeStamp
	}

	return 0
}

// String implements the fmt.Stringer interface for logging.
func (e Entry) String() string {
	switch e.Type {
	case EntryTx:
		return fmt.Sprintf("tx[%s]", e.Tx)
	case EntryReward:
		return fmt.Sprintf("reward[%s:%s:%v]", e.Reward.Reason.Kind, e.Reward.To, e.Reward.Amount)
	}

	return "unknown"
}

// check verifies the kind and payload agree.
func (e Entry) check() error {
	switch e.Type {
	case EntryTx:
		if e.Tx == nil || e.Reward != nil {
			return fmt.Errorf("%w: tx entry must carry only a tx payload", ErrValidation)
		}

	case EntryReward:
		if e.Reward == nil || e.Tx != nil {
			return fmt.Errorf("%w: reward entry must carry only a reward payload", ErrValidation)
		}

	case "":
		return fmt.Errorf("%w: missing entry type", ErrValidation)

	default:
		return fmt.Errorf("%w: unknown entry type %q", ErrValidation, e.Type)
	}

	return nil
}
