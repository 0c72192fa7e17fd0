package indexer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRange(t *testing.T) {
	cases := []struct {
		name      string
		from, to  uint64
		batchSize uint64
		want      []BlockRange
	}{
		{"even", 100, 105, 2, []BlockRange{{100, 101}, {102, 103}, {104, 105}}},
		{"uneven", 1, 5, 2, []BlockRange{{1, 2}, {3, 4}, {5, 5}}},
		{"single", 5, 5, 10, []BlockRange{{5, 5}}},
		{"chain tip", math.MaxUint64 - 2, math.MaxUint64, 2, []BlockRange{{math.MaxUint64 - 2, math.MaxUint64 - 1}, {math.MaxUint64, math.MaxUint64}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SplitRange(tc.from, tc.to, tc.batchSize)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			var total uint64
			for _, r := range got {
				total += r.Len()
			}
			assert.Equal(t, tc.to-tc.from+1, total)
		})
	}
}

func TestSplitRangeInvalid(t *testing.T) {
	_, err := SplitRange(10, 9, 1)
	assert.Error(t, err)
	_, err = SplitRange(1, 10, 0)
	assert.Error(t, err)
}
