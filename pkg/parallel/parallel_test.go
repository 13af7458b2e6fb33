package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForEachChunk(t *testing.T) {
	t.Run("covers every item exactly once", func(t *testing.T) {
		const items = 1000
		var hits [items]int32
		ForEachChunk(items, 4, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			assert.Equal(t, int32(1), h, "item %d", i)
		}
	})

	t.Run("zero items is a no-op", func(t *testing.T) {
		called := false
		ForEachChunk(0, 4, func(int, int) { called = true })
		assert.False(t, called)
	})

	t.Run("more workers than items", func(t *testing.T) {
		var count int32
		ForEachChunk(3, 100, func(start, end int) {
			atomic.AddInt32(&count, int32(end-start))
		})
		assert.Equal(t, int32(3), count)
	})
}

func TestForEachChunkThreshold(t *testing.T) {
	t.Run("small batches run in one call", func(t *testing.T) {
		calls := 0
		ForEachChunkThreshold(10, 4, func(start, end int) {
			calls++
			assert.Equal(t, 0, start)
			assert.Equal(t, 10, end)
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("large batches still cover every item", func(t *testing.T) {
		const items = 5000
		var count int32
		ForEachChunkThreshold(items, 0, func(start, end int) {
			atomic.AddInt32(&count, int32(end-start))
		})
		assert.Equal(t, int32(items), count)
	})
}
