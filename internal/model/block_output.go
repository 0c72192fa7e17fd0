package model

// BlockOutput is everything the pipeline produces for one block.
type BlockOutput struct {
	BlockNumber uint64
	Timestamp   uint64
	Swaps       SwapEvents
	Liquidity   LiquidityEvents
	Syncs       SyncEvents
	Failures    []DecodeFailure
	Deltas      BlockDeltas
	Records     []ChangeRecord
}
