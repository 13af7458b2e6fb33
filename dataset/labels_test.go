package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelCodec(t *testing.T) {
	codec := NewLabelCodec()

	t.Run("codes 1..5 and letters A..E form a bijection", func(t *testing.T) {
		seen := make(map[string]bool)
		for code := 1; code <= codec.NumClasses(); code++ {
			label, err := codec.Decode(code)
			require.NoError(t, err)
			assert.False(t, seen[label], "label %s decoded twice", label)
			seen[label] = true

			back, err := codec.Encode(label)
			require.NoError(t, err)
			assert.Equal(t, code, back)
		}
		assert.Len(t, seen, 5)
	})

	t.Run("unknown label is rejected", func(t *testing.T) {
		_, err := codec.Encode("F")
		require.Error(t, err)
	})

	t.Run("out-of-range code is rejected", func(t *testing.T) {
		_, err := codec.Decode(0)
		require.Error(t, err)
		_, err = codec.Decode(6)
		require.Error(t, err)
	})

	t.Run("EncodeVector produces zero-based class indices", func(t *testing.T) {
		y, err := codec.EncodeVector([]string{"A", "E", "C"})
		require.NoError(t, err)
		assert.Equal(t, 0.0, y.At(0, 0))
		assert.Equal(t, 4.0, y.At(1, 0))
		assert.Equal(t, 2.0, y.At(2, 0))
	})

	t.Run("DecodeClasses preserves order", func(t *testing.T) {
		labels, err := codec.DecodeClasses([]int{4, 0, 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"E", "A", "B"}, labels)
	})
}
