package extract

import (
	"errors"
	"math"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"poolScope/internal/dex"
	"poolScope/internal/model"
)

// Result holds everything extracted from one block.
type Result struct {
	BlockNumber uint64
	Timestamp   uint64
	LogsScanned int
	Swaps       model.SwapEvents
	Liquidity   model.LiquidityEvents
	Syncs       model.SyncEvents
	Failures    []model.DecodeFailure
}

// Extractor projects a block onto typed pool event collections.
type Extractor struct {
	decoder *dex.Decoder
	pools   map[common.Address]struct{}
}

// New builds an extractor. An empty pool list accepts logs from any address.
func New(decoder *dex.Decoder, pools []common.Address) *Extractor {
	if decoder == nil {
		decoder = dex.NewDecoder(nil)
	}
	var allow map[common.Address]struct{}
	if len(pools) > 0 {
		allow = make(map[common.Address]struct{}, len(pools))
		for _, pool := range pools {
			allow[pool] = struct{}{}
		}
	}
	return &Extractor{decoder: decoder, pools: allow}
}

// Extract walks receipts in order and each receipt's logs by ascending index,
// trying every event kind on every log. Decode failures are recorded and the
// log is skipped for that kind; they never stop the block.
func (e *Extractor) Extract(block model.Block) Result {
	res := Result{
		BlockNumber: block.Number,
		Timestamp:   block.Timestamp,
		Swaps:       model.SwapEvents{Events: []model.SwapEvent{}},
		Liquidity:   model.LiquidityEvents{Events: []model.LiquidityEvent{}},
		Syncs:       model.SyncEvents{Events: []model.SyncEvent{}},
	}

	for _, receipt := range block.Receipts {
		txHash := HashHex(receipt.TxHash)
		for _, log := range orderedLogs(receipt.Logs) {
			res.LogsScanned++
			if e.pools != nil {
				if _, ok := e.pools[log.Address]; !ok {
					continue
				}
			}
			for _, kind := range dex.Kinds {
				event, ok, err := e.decoder.MatchAndDecode(log, kind)
				if !ok {
					continue
				}
				if err != nil {
					res.Failures = append(res.Failures, failure(block.Number, txHash, log, kind, err))
					continue
				}
				res.add(event, txHash, log)
			}
		}
	}

	res.Swaps.Count = uint32(len(res.Swaps.Events))
	res.Liquidity.Count = uint32(len(res.Liquidity.Events))
	res.Syncs.Count = uint32(len(res.Syncs.Events))
	res.Swaps.TotalVolume = summaryVolume(res.Swaps.Events)
	return res
}

func (r *Result) add(event dex.Event, txHash string, log model.RawLog) {
	pool := AddressHex(log.Address)
	switch ev := event.(type) {
	case dex.Swap:
		r.Swaps.Events = append(r.Swaps.Events, model.SwapEvent{
			BlockNumber: r.BlockNumber,
			TxHash:      txHash,
			LogIndex:    log.Index,
			PoolAddress: pool,
			Sender:      AddressHex(ev.Sender),
			Recipient:   AddressHex(ev.Recipient),
			Amount0In:   ev.Amount0In.Dec(),
			Amount1In:   ev.Amount1In.Dec(),
			Amount0Out:  ev.Amount0Out.Dec(),
			Amount1Out:  ev.Amount1Out.Dec(),
			Timestamp:   r.Timestamp,
		})
	case dex.Mint:
		r.Liquidity.Events = append(r.Liquidity.Events, liquidityEvent(r, txHash, log.Index, pool,
			ev.Sender, ev.Recipient, ev.Amount0, ev.Amount1, model.ActionMint))
	case dex.Burn:
		r.Liquidity.Events = append(r.Liquidity.Events, liquidityEvent(r, txHash, log.Index, pool,
			ev.Sender, ev.Recipient, ev.Amount0, ev.Amount1, model.ActionBurn))
	case dex.Sync:
		r.Syncs.Events = append(r.Syncs.Events, model.SyncEvent{
			BlockNumber: r.BlockNumber,
			TxHash:      txHash,
			LogIndex:    log.Index,
			PoolAddress: pool,
			Reserve0:    ev.Reserve0.Dec(),
			Reserve1:    ev.Reserve1.Dec(),
			Timestamp:   r.Timestamp,
		})
	}
}

func liquidityEvent(r *Result, txHash string, logIndex uint64, pool string, sender, recipient common.Address, amount0, amount1 *uint256.Int, action string) model.LiquidityEvent {
	return model.LiquidityEvent{
		BlockNumber: r.BlockNumber,
		TxHash:      txHash,
		LogIndex:    logIndex,
		PoolAddress: pool,
		Sender:      AddressHex(sender),
		Recipient:   AddressHex(recipient),
		Amount0:     amount0.Dec(),
		Amount1:     amount1.Dec(),
		Action:      action,
		Timestamp:   r.Timestamp,
	}
}

func failure(blockNumber uint64, txHash string, log model.RawLog, kind dex.EventKind, err error) model.DecodeFailure {
	reason := "unknown"
	var decodeErr *dex.DecodeError
	if errors.As(err, &decodeErr) {
		reason = decodeErr.Reason()
	}
	return model.DecodeFailure{
		BlockNumber: blockNumber,
		TxHash:      txHash,
		LogIndex:    log.Index,
		Address:     AddressHex(log.Address),
		Event:       kind.String(),
		Reason:      reason,
		Error:       err.Error(),
	}
}

func orderedLogs(logs []model.RawLog) []model.RawLog {
	less := func(i, j int) bool { return logs[i].Index < logs[j].Index }
	if sort.SliceIsSorted(logs, less) {
		return logs
	}
	out := make([]model.RawLog, len(logs))
	copy(out, logs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// summaryVolume is a saturating uint64 sum of amount0In+amount1In. Amounts that
// do not fit in 64 bits, and per-swap sums that overflow, count as zero.
func summaryVolume(swaps []model.SwapEvent) uint64 {
	var total uint64
	for _, swap := range swaps {
		in, _ := swap.AmountInU64()
		if total > math.MaxUint64-in {
			total = math.MaxUint64
			continue
		}
		total += in
	}
	return total
}

// AddressHex renders an address as lowercase 0x-prefixed hex.
func AddressHex(addr common.Address) string {
	return hexutil.Encode(addr.Bytes())
}

// HashHex renders a hash as lowercase 0x-prefixed hex.
func HashHex(hash common.Hash) string {
	return hexutil.Encode(hash.Bytes())
}
