package dex

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Event is a decoded pool event: one of Swap, Mint, Burn or Sync.
type Event interface {
	Kind() EventKind
	isEvent()
}

// Swap is the decoded Swap event.
type Swap struct {
	Sender     common.Address
	Recipient  common.Address
	Amount0In  *uint256.Int
	Amount1In  *uint256.Int
	Amount0Out *uint256.Int
	Amount1Out *uint256.Int
}

// Mint is the decoded Mint event.
type Mint struct {
	Sender    common.Address
	Recipient common.Address
	Amount0   *uint256.Int
	Amount1   *uint256.Int
}

// Burn is the decoded Burn event.
type Burn struct {
	Sender    common.Address
	Recipient common.Address
	Amount0   *uint256.Int
	Amount1   *uint256.Int
}

// Sync is the decoded Sync event.
type Sync struct {
	Reserve0 *uint256.Int
	Reserve1 *uint256.Int
}

func (Swap) Kind() EventKind { return KindSwap }
func (Mint) Kind() EventKind { return KindMint }
func (Burn) Kind() EventKind { return KindBurn }
func (Sync) Kind() EventKind { return KindSync }

func (Swap) isEvent() {}
func (Mint) isEvent() {}
func (Burn) isEvent() {}
func (Sync) isEvent() {}
