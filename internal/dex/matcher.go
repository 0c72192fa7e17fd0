package dex

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"poolScope/internal/model"
)

// Matcher decides whether a raw log belongs to an event kind.
type Matcher struct {
	signatures map[EventKind][]common.Hash
}

// NewMatcher builds a matcher over the compiled-in signatures plus optional aliases.
// An alias adds another accepted topic0 for a kind; the topic count rule is unchanged.
func NewMatcher(aliases map[common.Hash]EventKind) (*Matcher, error) {
	signatures := make(map[EventKind][]common.Hash, len(Kinds))
	for _, kind := range Kinds {
		signatures[kind] = []common.Hash{kind.Signature()}
	}
	for topic0, kind := range aliases {
		if _, ok := signatures[kind]; !ok {
			return nil, fmt.Errorf("alias %s: unknown event kind %d", topic0.Hex(), kind)
		}
		if topic0 == (common.Hash{}) {
			continue
		}
		signatures[kind] = append(signatures[kind], topic0)
	}
	return &Matcher{signatures: signatures}, nil
}

var defaultMatcher, _ = NewMatcher(nil)

// Matches reports whether log matches kind using the compiled-in signatures only.
func Matches(log model.RawLog, kind EventKind) bool {
	return defaultMatcher.Matches(log, kind)
}

// Matches requires the exact topic count of kind and a byte-equal topic0.
func (m *Matcher) Matches(log model.RawLog, kind EventKind) bool {
	if len(log.Topics) != kind.TopicCount() {
		return false
	}
	topic0 := log.Topics[0]
	if len(topic0) != common.HashLength {
		return false
	}
	for _, sig := range m.signatures[kind] {
		if bytes.Equal(topic0, sig[:]) {
			return true
		}
	}
	return false
}

// Topic0s lists every accepted signature, compiled-in ones first, for log filters.
func (m *Matcher) Topic0s() []common.Hash {
	var out []common.Hash
	for _, kind := range Kinds {
		out = append(out, m.signatures[kind]...)
	}
	return out
}
