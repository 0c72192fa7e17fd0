package aggregate

import (
	"fmt"
	"math/big"

	"poolScope/internal/model"
)

// MergeRule is how a store folds a delta into the current value.
type MergeRule int

const (
	// RuleAdd adds non-negative integer deltas; a missing key counts as zero.
	RuleAdd MergeRule = iota + 1
	// RuleSetIfAbsent keeps the first value written to a key.
	RuleSetIfAbsent
)

func (r MergeRule) String() string {
	switch r {
	case RuleAdd:
		return "add"
	case RuleSetIfAbsent:
		return "set_if_absent"
	default:
		return fmt.Sprintf("MergeRule(%d)", int(r))
	}
}

// Op is the delta operation carried for the rule.
func (r MergeRule) Op() model.StoreOp {
	if r == RuleSetIfAbsent {
		return model.OpSetIfAbsent
	}
	return model.OpAdd
}

// DefaultStores maps each named store to its merge rule.
func DefaultStores() map[string]MergeRule {
	return map[string]MergeRule{
		StoreSwapVolumes:   RuleAdd,
		StorePoolStats:     RuleAdd,
		StoreUniqueTraders: RuleSetIfAbsent,
	}
}

// ParseDelta checks an add delta and returns its amount.
func ParseDelta(delta model.StoreDelta) (*big.Int, error) {
	value, ok := new(big.Int).SetString(delta.Value, 10)
	if !ok {
		return nil, fmt.Errorf("store %s key %s: invalid int %q", delta.Store, delta.Key, delta.Value)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("store %s key %s: negative delta %s", delta.Store, delta.Key, delta.Value)
	}
	return value, nil
}

// ValidateDeltas checks every delta against the registered stores.
func ValidateDeltas(stores map[string]MergeRule, deltas []model.StoreDelta) error {
	for _, delta := range deltas {
		rule, ok := stores[delta.Store]
		if !ok {
			return fmt.Errorf("unknown store %q", delta.Store)
		}
		if delta.Op != rule.Op() {
			return fmt.Errorf("store %s is %s, got %s for key %s", delta.Store, rule, delta.Op, delta.Key)
		}
		if rule == RuleAdd {
			if _, err := ParseDelta(delta); err != nil {
				return err
			}
		}
	}
	return nil
}
