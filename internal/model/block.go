package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Block is the extractor input: receipts in transaction order, each with its logs.
type Block struct {
	Number    uint64    `json:"number"`
	Timestamp uint64    `json:"timestamp"`
	Receipts  []Receipt `json:"receipts"`
}

// Receipt holds the logs emitted by one transaction.
type Receipt struct {
	TxHash  common.Hash `json:"tx_hash"`
	TxIndex uint        `json:"tx_index,omitempty"`
	Logs    []RawLog    `json:"logs"`
}

// RawLog is an undecoded event log. Topics are kept as raw byte slices so a
// malformed topic length survives until decoding.
type RawLog struct {
	Address common.Address  `json:"address"`
	Topics  []hexutil.Bytes `json:"topics"`
	Data    hexutil.Bytes   `json:"data"`
	Index   uint64          `json:"log_index"`
}

// LogCount returns the number of logs across all receipts.
func (b Block) LogCount() int {
	n := 0
	for _, r := range b.Receipts {
		n += len(r.Logs)
	}
	return n
}
