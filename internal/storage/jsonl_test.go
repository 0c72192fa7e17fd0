package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolScope/internal/model"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestJSONLSinkAppends(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s := NewJSONLSink(dir)

	out := model.BlockOutput{
		BlockNumber: 3,
		Swaps:       model.SwapEvents{Events: []model.SwapEvent{{BlockNumber: 3, TxHash: "0x01", Amount0In: "1"}}, Count: 1},
		Failures:    []model.DecodeFailure{{BlockNumber: 3, Reason: "missing_topic"}},
		Deltas:      model.BlockDeltas{BlockNumber: 3, Deltas: []model.StoreDelta{{Store: "swap_volumes", Key: "total:swaps", Op: model.OpAdd, Value: "1"}}},
	}
	require.NoError(t, s.PutBlock(context.Background(), out))
	require.NoError(t, s.PutBlock(context.Background(), out))

	assert.Len(t, readLines(t, filepath.Join(dir, SwapsFile)), 2)
	assert.Len(t, readLines(t, filepath.Join(dir, FailuresFile)), 2)
	deltas := readLines(t, filepath.Join(dir, DeltasFile))
	require.Len(t, deltas, 2)
	assert.Contains(t, deltas[0], `"op":"add"`)

	_, err := os.Stat(filepath.Join(dir, SyncsFile))
	assert.True(t, os.IsNotExist(err))
}

type failSink struct{ calls *int }

func (f failSink) PutBlock(context.Context, model.BlockOutput) error {
	*f.calls++
	return errors.New("down")
}

func TestMultiSinkStopsAtFirstError(t *testing.T) {
	calls := 0
	m := MultiSink{failSink{&calls}, failSink{&calls}}
	assert.Error(t, m.PutBlock(context.Background(), model.BlockOutput{}))
	assert.Equal(t, 1, calls)
}
