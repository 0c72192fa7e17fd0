package model

// SwapEvent is a decoded Swap annotated with its block context.
// Hashes and addresses are lowercase 0x-prefixed hex, amounts base-10 strings.
type SwapEvent struct {
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	PoolAddress string `json:"pool_address"`
	Sender      string `json:"sender"`
	Recipient   string `json:"recipient"`
	Amount0In   string `json:"amount0_in"`
	Amount1In   string `json:"amount1_in"`
	Amount0Out  string `json:"amount0_out"`
	Amount1Out  string `json:"amount1_out"`
	Timestamp   uint64 `json:"timestamp"`
}

// Liquidity actions.
const (
	ActionMint = "mint"
	ActionBurn = "burn"
)

// LiquidityEvent is a decoded Mint or Burn.
type LiquidityEvent struct {
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	PoolAddress string `json:"pool_address"`
	Sender      string `json:"sender"`
	Recipient   string `json:"recipient"`
	Amount0     string `json:"amount0"`
	Amount1     string `json:"amount1"`
	Action      string `json:"action"`
	Timestamp   uint64 `json:"timestamp"`
}

// SyncEvent is a decoded reserve update.
type SyncEvent struct {
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	PoolAddress string `json:"pool_address"`
	Reserve0    string `json:"reserve0"`
	Reserve1    string `json:"reserve1"`
	Timestamp   uint64 `json:"timestamp"`
}

// SwapEvents is the per-block swap collection.
// TotalVolume is a lossy uint64 diagnostic, not an aggregate.
type SwapEvents struct {
	Events      []SwapEvent `json:"swaps"`
	Count       uint32      `json:"swap_count"`
	TotalVolume uint64      `json:"total_volume"`
}

// LiquidityEvents is the per-block mint/burn collection.
type LiquidityEvents struct {
	Events []LiquidityEvent `json:"events"`
	Count  uint32           `json:"event_count"`
}

// SyncEvents is the per-block sync collection.
type SyncEvents struct {
	Events []SyncEvent `json:"events"`
	Count  uint32      `json:"event_count"`
}
