package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolScope/internal/model"
	"poolScope/internal/sink"
)

func TestSwapArgs(t *testing.T) {
	rec := sink.NewEmitter("", nil).Emit([]model.SwapEvent{{
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
	}})[0]

	args, err := swapArgs(rec)
	require.NoError(t, err)
	require.Len(t, args, len(swapColumns)+1)
	assert.Equal(t, "0xabc:4", args[0])
	assert.Equal(t, int64(4), args[2])
	assert.Equal(t, int64(12), args[3])
	assert.Equal(t, int64(1705276800), args[4])
	assert.Equal(t, "18446744073709551615", args[12])
	assert.Equal(t, "10", args[13])
}

func TestSwapArgsMissingField(t *testing.T) {
	_, err := swapArgs(model.ChangeRecord{Table: "swaps", ID: "x"})
	assert.Error(t, err)
}
