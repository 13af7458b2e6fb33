package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeLabels(counts map[string]int) []string {
	labels := make([]string, 0)
	for _, class := range []string{"A", "B", "C", "D", "E"} {
		for i := 0; i < counts[class]; i++ {
			labels = append(labels, class)
		}
	}
	return labels
}

func TestSplitter(t *testing.T) {
	counts := map[string]int{"A": 500, "B": 350, "C": 300, "D": 280, "E": 320}
	labels := makeLabels(counts)

	t.Run("partitions are disjoint and cover every row", func(t *testing.T) {
		fit, holdout, err := NewSplitter(42).Split(labels)
		require.NoError(t, err)

		seen := make(map[int]int)
		for _, idx := range fit {
			seen[idx]++
		}
		for _, idx := range holdout {
			seen[idx]++
		}
		require.Len(t, seen, len(labels))
		for idx, n := range seen {
			assert.Equal(t, 1, n, "row %d assigned %d times", idx, n)
		}
	})

	t.Run("same seed and input give the identical partition", func(t *testing.T) {
		fit1, hold1, err := NewSplitter(42).Split(labels)
		require.NoError(t, err)
		fit2, hold2, err := NewSplitter(42).Split(labels)
		require.NoError(t, err)
		assert.Equal(t, fit1, fit2)
		assert.Equal(t, hold1, hold2)
	})

	t.Run("different seeds give different partitions", func(t *testing.T) {
		fit1, _, err := NewSplitter(42).Split(labels)
		require.NoError(t, err)
		fit2, _, err := NewSplitter(43).Split(labels)
		require.NoError(t, err)
		assert.NotEqual(t, fit1, fit2)
	})

	t.Run("each class is represented at approximately the split fraction", func(t *testing.T) {
		splitter := NewSplitter(7)
		fit, _, err := splitter.Split(labels)
		require.NoError(t, err)

		fitCounts := make(map[string]int)
		for _, idx := range fit {
			fitCounts[labels[idx]]++
		}
		for class, total := range counts {
			frac := float64(fitCounts[class]) / float64(total)
			assert.InDelta(t, splitter.Fraction, frac, 0.02,
				"class %s fit fraction %f", class, frac)
		}
	})

	t.Run("invalid fraction is rejected", func(t *testing.T) {
		s := &Splitter{Fraction: 1.0, Seed: 1}
		_, _, err := s.Split(labels)
		require.Error(t, err)
	})

	t.Run("empty input is rejected", func(t *testing.T) {
		_, _, err := NewSplitter(1).Split(nil)
		require.Error(t, err)
	})
}

func TestSplitterFractionRounding(t *testing.T) {
	// 10 rows of one class at p=0.7 puts exactly 7 in the fit partition.
	labels := makeLabels(map[string]int{"A": 10})
	fit, holdout, err := NewSplitter(3).Split(labels)
	require.NoError(t, err)
	assert.Len(t, fit, 7)
	assert.Len(t, holdout, 3)
}
