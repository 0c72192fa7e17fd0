package model

// StoreOp is the merge operation carried by a StoreDelta.
type StoreOp string

const (
	// OpAdd adds a base-10 integer delta to a counter.
	OpAdd StoreOp = "add"
	// OpSetIfAbsent writes a string only when the key has no value yet.
	OpSetIfAbsent StoreOp = "set_if_absent"
)

// StoreDelta is one keyed update against a named store.
type StoreDelta struct {
	Store string  `json:"store"`
	Key   string  `json:"key"`
	Op    StoreOp `json:"op"`
	Value string  `json:"value"`
}

// BlockDeltas groups the deltas produced by one block.
type BlockDeltas struct {
	BlockNumber uint64       `json:"block_number"`
	Deltas      []StoreDelta `json:"deltas"`
}
