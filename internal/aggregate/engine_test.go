package aggregate

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolScope/internal/model"
)

const (
	testPool   = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	testSender = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

func testSwap(block uint64, amount0In, amount1In string) model.SwapEvent {
	return model.SwapEvent{
		BlockNumber: block,
		TxHash:      "0x01",
		LogIndex:    0,
		PoolAddress: testPool,
		Sender:      testSender,
		Recipient:   testSender,
		Amount0In:   amount0In,
		Amount1In:   amount1In,
		Amount0Out:  "0",
		Amount1Out:  "0",
		Timestamp:   1705276800,
	}
}

func counter(t *testing.T, b *MemoryBackend, store, key string) string {
	t.Helper()
	v, err := b.Counter(context.Background(), store, key)
	require.NoError(t, err)
	return v.String()
}

func marker(t *testing.T, b *MemoryBackend, store, key string) string {
	t.Helper()
	v, ok, err := b.Marker(context.Background(), store, key)
	require.NoError(t, err)
	require.True(t, ok, "marker %s/%s missing", store, key)
	return v
}

func TestApplyBlockSingleSwap(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	engine := NewEngine(backend, nil)

	out, err := engine.ApplyBlock(ctx, 100, []model.SwapEvent{testSwap(100, "100", "0")})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), out.BlockNumber)
	assert.Len(t, out.Deltas, 12)

	assert.Equal(t, "100", counter(t, backend, StoreSwapVolumes, "pool:"+testPool+":volume"))
	assert.Equal(t, "1", counter(t, backend, StoreSwapVolumes, "pool:"+testPool+":count"))
	assert.Equal(t, "100", counter(t, backend, StoreSwapVolumes, "total:volume"))
	assert.Equal(t, "1", counter(t, backend, StoreSwapVolumes, "total:swaps"))
	assert.Equal(t, "100", counter(t, backend, StoreSwapVolumes, "daily:2024-01-15:volume"))
	assert.Equal(t, "1", counter(t, backend, StoreSwapVolumes, "daily:2024-01-15:count"))
	assert.Equal(t, "100", counter(t, backend, StoreSwapVolumes, "hourly:2024-01-15-00:volume"))
	assert.Equal(t, "1", counter(t, backend, StoreSwapVolumes, "hourly:2024-01-15-00:count"))
	assert.Equal(t, "1", counter(t, backend, StorePoolStats, "pool:"+testPool+":trade_count"))

	assert.Equal(t, "100:1705276800", marker(t, backend, StoreUniqueTraders, "trader:"+testSender))
	assert.Equal(t, "100", marker(t, backend, StoreUniqueTraders, "daily:2024-01-15:trader:"+testSender))
	assert.Equal(t, "100", marker(t, backend, StoreUniqueTraders, "pool:"+testPool+":trader:"+testSender))

	last, ok, err := engine.LastBlock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(100), last)
}

func TestApplyBlockCountersAccumulate(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	engine := NewEngine(backend, nil)

	_, err := engine.ApplyBlock(ctx, 100, []model.SwapEvent{testSwap(100, "100", "0")})
	require.NoError(t, err)
	later := testSwap(101, "0", "50")
	later.Timestamp = 1705276800 + 3600
	_, err = engine.ApplyBlock(ctx, 101, []model.SwapEvent{later})
	require.NoError(t, err)

	assert.Equal(t, "150", counter(t, backend, StoreSwapVolumes, TotalVolumeKey))
	assert.Equal(t, "2", counter(t, backend, StoreSwapVolumes, TotalSwapsKey))
	assert.Equal(t, "50", counter(t, backend, StoreSwapVolumes, "hourly:2024-01-15-01:volume"))
	assert.Equal(t, "100:1705276800", marker(t, backend, StoreUniqueTraders, TraderKey(testSender)))
	assert.Equal(t, "100", marker(t, backend, StoreUniqueTraders, PoolTraderKey(testPool, testSender)))
}

func TestZeroAmountSkipsCountersButRecordsTrader(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	engine := NewEngine(backend, nil)

	out, err := engine.ApplyBlock(ctx, 7, []model.SwapEvent{testSwap(7, "0", "0")})
	require.NoError(t, err)
	assert.Len(t, out.Deltas, 3)
	for _, d := range out.Deltas {
		assert.Equal(t, StoreUniqueTraders, d.Store)
	}

	assert.Equal(t, "0", counter(t, backend, StoreSwapVolumes, TotalSwapsKey))
	assert.Equal(t, "7:1705276800", marker(t, backend, StoreUniqueTraders, TraderKey(testSender)))
}

func TestAmountFallback(t *testing.T) {
	engine := NewEngine(NewMemoryBackend(), nil)

	// a field wider than 64 bits counts as zero
	deltas := engine.Plan([]model.SwapEvent{testSwap(1, "18446744073709551616", "5")})
	require.NotEmpty(t, deltas)
	assert.Equal(t, "5", deltas[0].Value)

	// an overflowing sum counts as zero
	deltas = engine.Plan([]model.SwapEvent{testSwap(1, "18446744073709551615", "1")})
	assert.Len(t, deltas, 3)
}

func TestEmptySenderSkipsMarkers(t *testing.T) {
	engine := NewEngine(NewMemoryBackend(), nil)
	swap := testSwap(1, "10", "0")
	swap.Sender = ""

	deltas := engine.Plan([]model.SwapEvent{swap})
	assert.Len(t, deltas, 9)
	for _, d := range deltas {
		assert.Equal(t, model.OpAdd, d.Op)
	}
}

func TestApplyBlockRejectsOutOfOrder(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(NewMemoryBackend(), nil)

	_, err := engine.ApplyBlock(ctx, 10, nil)
	require.NoError(t, err)

	_, err = engine.ApplyBlock(ctx, 10, nil)
	assert.True(t, errors.Is(err, ErrBlockOutOfOrder))
	_, err = engine.ApplyBlock(ctx, 9, nil)
	assert.True(t, errors.Is(err, ErrBlockOutOfOrder))

	// gaps are allowed
	_, err = engine.ApplyBlock(ctx, 12, nil)
	require.NoError(t, err)
}

func TestEngineResumesFromBackend(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	_, err := NewEngine(backend, nil).ApplyBlock(ctx, 50, nil)
	require.NoError(t, err)

	engine := NewEngine(backend, nil)
	_, err = engine.ApplyBlock(ctx, 50, nil)
	assert.ErrorIs(t, err, ErrBlockOutOfOrder)
	_, err = engine.ApplyBlock(ctx, 51, nil)
	assert.NoError(t, err)
}

func TestReplayIsDeterministic(t *testing.T) {
	ctx := context.Background()
	blocks := map[uint64][]model.SwapEvent{
		1: {testSwap(1, "10", "0"), testSwap(1, "0", "20")},
		2: {testSwap(2, "5", "5")},
		3: nil,
		4: {testSwap(4, "999999999", "1")},
	}

	run := func() *MemoryBackend {
		backend := NewMemoryBackend()
		engine := NewEngine(backend, nil)
		for n := uint64(1); n <= 4; n++ {
			_, err := engine.ApplyBlock(ctx, n, blocks[n])
			require.NoError(t, err)
		}
		return backend
	}

	a, b := run(), run()
	assert.Equal(t, a.snapshotLocked().Counters, b.snapshotLocked().Counters)
	assert.Equal(t, a.snapshotLocked().Markers, b.snapshotLocked().Markers)
	assert.Equal(t, "1000000040", counter(t, a, StoreSwapVolumes, TotalVolumeKey))
}

type failingBackend struct{ *MemoryBackend }

func (f *failingBackend) Commit(context.Context, uint64, []model.StoreDelta) error {
	return errors.New("boom")
}

func TestApplyBlockCommitFailureKeepsLast(t *testing.T) {
	ctx := context.Background()
	backend := &failingBackend{MemoryBackend: NewMemoryBackend()}
	engine := NewEngine(backend, nil)

	_, err := engine.ApplyBlock(ctx, 3, nil)
	require.Error(t, err)
	_, ok, err := engine.LastBlock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCounterIsCopy(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, backend.Commit(context.Background(), 1, []model.StoreDelta{add(StoreSwapVolumes, TotalVolumeKey, "5")}))

	v, err := backend.Counter(context.Background(), StoreSwapVolumes, TotalVolumeKey)
	require.NoError(t, err)
	v.Add(v, big.NewInt(1))
	assert.Equal(t, "5", counter(t, backend, StoreSwapVolumes, TotalVolumeKey))
}

func TestPrepareDoesNotCommit(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	engine := NewEngine(backend, nil)

	out, err := engine.Prepare(ctx, 5, []model.SwapEvent{testSwap(5, "10", "0")})
	require.NoError(t, err)
	assert.Equal(t, "0", counter(t, backend, StoreSwapVolumes, TotalVolumeKey))

	require.NoError(t, engine.Commit(ctx, out))
	assert.Equal(t, "10", counter(t, backend, StoreSwapVolumes, TotalVolumeKey))
	assert.ErrorIs(t, engine.Commit(ctx, out), ErrBlockOutOfOrder)
}
