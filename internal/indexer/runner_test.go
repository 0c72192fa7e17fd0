package indexer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolScope/internal/aggregate"
	"poolScope/internal/dex"
)

type fakeChain struct {
	latest      uint64
	logs        []types.Log
	filterCalls [][2]uint64
	failFilter  int
	forgotten   uint64
}

func (f *fakeChain) LatestBlockNumber(context.Context) (uint64, error) {
	return f.latest, nil
}

func (f *fakeChain) BlockTimestamp(_ context.Context, number uint64) (uint64, error) {
	return 1705276800 + (number-100)*12, nil
}

func (f *fakeChain) FilterLogs(_ context.Context, from, to uint64, _ []common.Address, topic0 []common.Hash) ([]types.Log, error) {
	if f.failFilter > 0 {
		f.failFilter--
		return nil, errors.New("rpc unavailable")
	}
	f.filterCalls = append(f.filterCalls, [2]uint64{from, to})
	var out []types.Log
	for _, log := range f.logs {
		if log.BlockNumber >= from && log.BlockNumber <= to {
			out = append(out, log)
		}
	}
	return out, nil
}

func (f *fakeChain) ForgetBefore(number uint64) { f.forgotten = number }

func rpcSwap(block uint64, index uint, amountIn int64) types.Log {
	return types.Log{
		Address:     poolAddr,
		Topics:      []common.Hash{dex.SwapSignature, common.BytesToHash(senderAddr.Bytes()), common.BytesToHash(senderAddr.Bytes())},
		Data:        words(amountIn, 0, 0, amountIn/2),
		BlockNumber: block,
		TxHash:      common.BigToHash(common.Big1),
		Index:       index,
	}
}

func TestRunnerProcessesRange(t *testing.T) {
	ctx := context.Background()
	chain := &fakeChain{
		latest: 105,
		logs:   []types.Log{rpcSwap(101, 0, 100), rpcSwap(104, 3, 40), rpcSwap(104, 1, 60)},
	}
	backend := aggregate.NewMemoryBackend()
	out := &recordingSink{}
	p := newTestPipeline(backend, out, nil)
	cpPath := filepath.Join(t.TempDir(), "checkpoint.json")

	runner := NewRunner(RunConfig{
		FromBlock:         100,
		BatchSize:         3,
		CheckpointPath:    cpPath,
		CheckpointEnabled: true,
	}, chain, p, nil)
	require.NoError(t, runner.Run(ctx))

	assert.Equal(t, [][2]uint64{{100, 102}, {103, 105}}, chain.filterCalls)
	assert.Len(t, out.blocks, 6)
	assert.Equal(t, uint64(106), chain.forgotten)

	v, err := backend.Counter(ctx, aggregate.StoreSwapVolumes, aggregate.TotalVolumeKey)
	require.NoError(t, err)
	assert.Equal(t, "200", v.String())

	last, ok, err := backend.LastBlock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(105), last)

	swaps := out.blocks[4].Swaps.Events
	require.Len(t, swaps, 2)
	assert.Equal(t, uint64(1), swaps[0].LogIndex)
	assert.Equal(t, uint64(1705276800+4*12), swaps[0].Timestamp)

	cp, ok, err := NewCheckpointStore(cpPath, true).Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(105), cp.LastProcessedBlock)

	// a second run resumes past the committed block and finds nothing to do
	chain.filterCalls = nil
	require.NoError(t, NewRunner(RunConfig{FromBlock: 100, BatchSize: 3}, chain, p, nil).Run(ctx))
	assert.Empty(t, chain.filterCalls)
}

func TestRunnerRetriesFilterLogs(t *testing.T) {
	chain := &fakeChain{latest: 10, failFilter: 2}
	p := newTestPipeline(aggregate.NewMemoryBackend(), nil, nil)

	runner := NewRunner(RunConfig{
		FromBlock:    10,
		ToBlock:      10,
		BatchSize:    5,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	}, chain, p, nil)
	require.NoError(t, runner.Run(context.Background()))
	assert.Len(t, chain.filterCalls, 1)
}

func TestRunnerGivesUpAfterRetries(t *testing.T) {
	chain := &fakeChain{latest: 10, failFilter: 5}
	p := newTestPipeline(aggregate.NewMemoryBackend(), nil, nil)

	runner := NewRunner(RunConfig{
		FromBlock:    10,
		ToBlock:      10,
		BatchSize:    5,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
	}, chain, p, nil)
	err := runner.Run(context.Background())
	assert.ErrorContains(t, err, "rpc unavailable")
}

func TestRunnerRejectsZeroBatch(t *testing.T) {
	p := newTestPipeline(aggregate.NewMemoryBackend(), nil, nil)
	err := NewRunner(RunConfig{}, &fakeChain{}, p, nil).Run(context.Background())
	assert.Error(t, err)
}
