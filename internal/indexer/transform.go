package indexer

import (
	"sort"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"poolScope/internal/model"
)

// BuildBlocks groups RPC logs into one Block per block number in the range.
// Receipts follow transaction index order and keep their logs in log index
// order. Removed logs are dropped. Blocks without logs come back empty with a
// zero timestamp.
func BuildBlocks(r BlockRange, logs []types.Log, timestamps map[uint64]uint64) []model.Block {
	from, to := r.From, r.To
	sorted := make([]types.Log, 0, len(logs))
	for _, log := range logs {
		if log.Removed || log.BlockNumber < from || log.BlockNumber > to {
			continue
		}
		sorted = append(sorted, log)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BlockNumber != sorted[j].BlockNumber {
			return sorted[i].BlockNumber < sorted[j].BlockNumber
		}
		return sorted[i].Index < sorted[j].Index
	})

	blocks := make([]model.Block, 0, r.Len())
	next := 0
	for number := from; ; number++ {
		block := model.Block{Number: number, Timestamp: timestamps[number]}
		for next < len(sorted) && sorted[next].BlockNumber == number {
			block.Receipts = appendLog(block.Receipts, sorted[next])
			next++
		}
		sort.SliceStable(block.Receipts, func(i, j int) bool {
			return block.Receipts[i].TxIndex < block.Receipts[j].TxIndex
		})
		blocks = append(blocks, block)
		if number == to {
			break
		}
	}
	return blocks
}

func appendLog(receipts []model.Receipt, log types.Log) []model.Receipt {
	raw := toRawLog(log)
	for i := range receipts {
		if receipts[i].TxHash == log.TxHash {
			receipts[i].Logs = append(receipts[i].Logs, raw)
			return receipts
		}
	}
	return append(receipts, model.Receipt{TxHash: log.TxHash, Logs: []model.RawLog{raw}, TxIndex: log.TxIndex})
}

func toRawLog(log types.Log) model.RawLog {
	topics := make([]hexutil.Bytes, 0, len(log.Topics))
	for _, topic := range log.Topics {
		topics = append(topics, hexutil.Bytes(topic.Bytes()))
	}
	data := make([]byte, len(log.Data))
	copy(data, log.Data)
	return model.RawLog{
		Address: log.Address,
		Topics:  topics,
		Data:    data,
		Index:   uint64(log.Index),
	}
}
