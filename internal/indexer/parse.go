package indexer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"poolScope/internal/dex"
)

// ParseAddresses converts string addresses into common.Address.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		addresses = append(addresses, common.HexToAddress(input))
	}
	return addresses, nil
}

// ParseTopic0 converts a 0x-prefixed 32-byte hex string into a hash.
func ParseTopic0(input string) (common.Hash, error) {
	input = strings.TrimSpace(input)
	data, err := hexutil.Decode(input)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid topic0: %s", input)
	}
	if len(data) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid topic0 length: %s", input)
	}
	return common.BytesToHash(data), nil
}

// ParseAliases reads topic0 -> kind name pairs, e.g.
// {"0x1c411e9a...bad1": "sync"}, into extra matcher signatures.
func ParseAliases(inputs map[string]string) (map[common.Hash]dex.EventKind, error) {
	aliases := make(map[common.Hash]dex.EventKind, len(inputs))
	for topic, name := range inputs {
		hash, err := ParseTopic0(topic)
		if err != nil {
			return nil, err
		}
		kind, err := dex.ParseEventKind(name)
		if err != nil {
			return nil, fmt.Errorf("alias %s: %w", hash.Hex(), err)
		}
		if prev, dup := aliases[hash]; dup && prev != kind {
			return nil, fmt.Errorf("alias %s: mapped to both %s and %s", hash.Hex(), prev, kind)
		}
		aliases[hash] = kind
	}
	return aliases, nil
}
