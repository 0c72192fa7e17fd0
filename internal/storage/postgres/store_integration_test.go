//go:build integration

package postgres

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"poolScope/internal/aggregate"
	"poolScope/internal/model"
	"poolScope/internal/sink"
)

var testDSN string

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("poolscope_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		log.Fatalf("start postgres container: %s", err)
	}

	testDSN, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		log.Fatalf("postgres connection string: %s", err)
	}

	code := m.Run()

	if err := container.Terminate(ctx); err != nil {
		log.Printf("terminate postgres container: %v", err)
	}
	os.Exit(code)
}

// newTestStore opens a Store over freshly created tables.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	store, err := NewStore(ctx, testDSN)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	_, err = store.pool.Exec(ctx, `DROP TABLE IF EXISTS store_counters, store_markers, indexer_state, swaps`)
	require.NoError(t, err)
	_, err = store.pool.Exec(ctx, Schema)
	require.NoError(t, err)
	return store
}

func counterDelta(key, value string) model.StoreDelta {
	return model.StoreDelta{Store: aggregate.StoreSwapVolumes, Key: key, Op: model.OpAdd, Value: value}
}

func markerDelta(key, value string) model.StoreDelta {
	return model.StoreDelta{Store: aggregate.StoreUniqueTraders, Key: key, Op: model.OpSetIfAbsent, Value: value}
}

func TestStoreCommit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, ok, err := store.LastBlock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Commit(ctx, 10, []model.StoreDelta{
		counterDelta(aggregate.TotalVolumeKey, "18446744073709551615"),
		counterDelta(aggregate.TotalVolumeKey, "18446744073709551615"),
		markerDelta("trader:0xaa", "10:1705276800"),
	}))
	require.NoError(t, store.Commit(ctx, 11, []model.StoreDelta{
		counterDelta(aggregate.TotalVolumeKey, "2"),
		markerDelta("trader:0xaa", "11:1705276812"),
	}))

	total, err := store.Counter(ctx, aggregate.StoreSwapVolumes, aggregate.TotalVolumeKey)
	require.NoError(t, err)
	assert.Equal(t, "36893488147419103232", total.String())

	first, ok, err := store.Marker(ctx, aggregate.StoreUniqueTraders, "trader:0xaa")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "10:1705276800", first)

	missing, err := store.Counter(ctx, aggregate.StoreSwapVolumes, "nope")
	require.NoError(t, err)
	assert.Equal(t, "0", missing.String())

	last, ok, err := store.LastBlock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(11), last)
}

func TestStoreCommitRollsBackFailedBlock(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Commit(ctx, 1, []model.StoreDelta{counterDelta(aggregate.TotalSwapsKey, "1")}))

	_, err := store.pool.Exec(ctx, `DROP TABLE store_markers`)
	require.NoError(t, err)

	err = store.Commit(ctx, 2, []model.StoreDelta{
		counterDelta(aggregate.TotalSwapsKey, "1"),
		markerDelta("trader:0xaa", "2:0"),
	})
	require.Error(t, err)

	swaps, err := store.Counter(ctx, aggregate.StoreSwapVolumes, aggregate.TotalSwapsKey)
	require.NoError(t, err)
	assert.Equal(t, "1", swaps.String())
	last, _, err := store.LastBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), last)

	_, err = store.pool.Exec(ctx, Schema)
	require.NoError(t, err)
	require.NoError(t, store.Commit(ctx, 2, []model.StoreDelta{
		counterDelta(aggregate.TotalSwapsKey, "1"),
		markerDelta("trader:0xaa", "2:0"),
	}))
	swaps, err = store.Counter(ctx, aggregate.StoreSwapVolumes, aggregate.TotalSwapsKey)
	require.NoError(t, err)
	assert.Equal(t, "2", swaps.String())
}

func TestUpsertSwapsKeepsFirstRow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	swapSink := NewSwapSink(store)

	records := sink.NewEmitter("", nil).Emit([]model.SwapEvent{{
		BlockNumber: 12,
		TxHash:      "0xabc",
		LogIndex:    4,
		PoolAddress: "0xbb",
		Sender:      "0xaa",
		Recipient:   "0xcc",
		Amount0In:   "18446744073709551615",
		Amount1In:   "0",
		Amount0Out:  "0",
		Amount1Out:  "10",
		Timestamp:   1705276800,
	}})
	require.NoError(t, swapSink.PutBlock(ctx, model.BlockOutput{BlockNumber: 12, Records: records}))
	require.NoError(t, swapSink.PutBlock(ctx, model.BlockOutput{BlockNumber: 12, Records: records}))
	require.NoError(t, swapSink.UpsertSwaps(ctx, nil))

	var (
		count   int
		inTotal string
		outSum  string
	)
	row := store.pool.QueryRow(ctx, `SELECT count(*), max(amount_in_total)::text, max(amount1_out)::text FROM swaps`)
	require.NoError(t, row.Scan(&count, &inTotal, &outSum))
	assert.Equal(t, 1, count)
	assert.Equal(t, "18446744073709551615", inTotal)
	assert.Equal(t, "10", outSum)
}
