package model

// DecodeFailure records a log that matched an event kind but failed to decode.
type DecodeFailure struct {
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Address     string `json:"address"`
	Event       string `json:"event"`
	Reason      string `json:"reason"`
	Error       string `json:"error"`
}
