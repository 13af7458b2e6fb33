// Package parallel splits row-indexed work across workers.
package parallel

import (
	"runtime"
	"sync"
)

// ForEachChunk divides items into contiguous chunks and runs fn(start,
// end) for each chunk on its own goroutine. Workers are capped at
// maxWorkers, or at the CPU count when maxWorkers is not positive. fn
// must be safe to call concurrently on disjoint ranges.
func ForEachChunk(items, maxWorkers int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	workers := maxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}

	chunk := (items + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < items; start += chunk {
		end := start + chunk
		if end > items {
			end = items
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// minRowsForParallel is the batch size below which goroutine overhead
// outweighs the win.
const minRowsForParallel = 256

// ForEachChunkThreshold runs sequentially for small batches and falls
// back to ForEachChunk above the internal threshold.
func ForEachChunkThreshold(items, maxWorkers int, fn func(start, end int)) {
	if items <= minRowsForParallel {
		fn(0, items)
		return
	}
	ForEachChunk(items, maxWorkers, fn)
}
