package dex

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Event signature hashes (topic0) of the pool events.
var (
	// SwapSignature: Swap(address,address,uint256,uint256,uint256,uint256)
	SwapSignature = common.HexToHash("0xb3e2773606abfd36b5bd91394b3a54d1398336c65005baf7bf7a05efeffaf75b")

	// MintSignature: Mint(address,address,uint256,uint256)
	MintSignature = common.HexToHash("0x2f00e3cdd69a77be7ed215ec7b2a36784dd158f921fca79ac29deffa353fe6ee")

	// BurnSignature: Burn(address,address,uint256,uint256)
	BurnSignature = common.HexToHash("0x5d624aa9c148153ab3446c1b154f660ee7701e549fe9b62dab7171b1c80e6fa2")

	// SyncSignature: Sync(uint256,uint256)
	SyncSignature = common.HexToHash("0xcf2aa50876cdfbb541206f89af0ee78d44a2abf8d328e37fa4917f982149848a")

	// LegacySyncSignature is the Uniswap V2 style Sync(uint112,uint112). Not matched
	// unless registered as an alias.
	LegacySyncSignature = common.HexToHash("0x1c411e9a96e071241c2f21f7726b17ae89e3cab4c78be50e062b03a9fffbbad1")
)

// EventKind identifies one of the supported pool events.
type EventKind uint8

const (
	KindSwap EventKind = iota + 1
	KindMint
	KindBurn
	KindSync
)

// Kinds lists every event kind in the order the extractor tries them.
var Kinds = []EventKind{KindSwap, KindMint, KindBurn, KindSync}

func (k EventKind) String() string {
	switch k {
	case KindSwap:
		return "Swap"
	case KindMint:
		return "Mint"
	case KindBurn:
		return "Burn"
	case KindSync:
		return "Sync"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Signature returns the compiled-in topic0 of the kind.
func (k EventKind) Signature() common.Hash {
	switch k {
	case KindSwap:
		return SwapSignature
	case KindMint:
		return MintSignature
	case KindBurn:
		return BurnSignature
	case KindSync:
		return SyncSignature
	default:
		return common.Hash{}
	}
}

// TopicCount is the exact number of topics a matching log carries, signature included.
func (k EventKind) TopicCount() int {
	switch k {
	case KindSwap, KindMint, KindBurn:
		return 3
	case KindSync:
		return 1
	default:
		return -1
	}
}

// MinDataLen is the minimum payload length in bytes.
func (k EventKind) MinDataLen() int {
	switch k {
	case KindSwap:
		return 4 * wordSize
	case KindMint, KindBurn, KindSync:
		return 2 * wordSize
	default:
		return 0
	}
}

// ParseEventKind maps a case-insensitive event name to its kind.
func ParseEventKind(name string) (EventKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "swap":
		return KindSwap, nil
	case "mint":
		return KindMint, nil
	case "burn":
		return KindBurn, nil
	case "sync":
		return KindSync, nil
	default:
		return 0, fmt.Errorf("unsupported event name: %s", name)
	}
}
