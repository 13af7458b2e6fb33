package boosting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStratifiedKFold(t *testing.T) {
	labels := make([]int, 100)
	for i := range labels {
		labels[i] = i % 4
	}

	t.Run("folds partition the rows", func(t *testing.T) {
		folds, err := NewStratifiedKFold(5, 3).Split(labels)
		require.NoError(t, err)
		require.Len(t, folds, 5)

		seen := make(map[int]int)
		for _, fold := range folds {
			for _, row := range fold {
				seen[row]++
			}
		}
		assert.Len(t, seen, len(labels))
		for row, count := range seen {
			assert.Equal(t, 1, count, "row %d appears %d times", row, count)
		}
	})

	t.Run("folds preserve class proportions", func(t *testing.T) {
		folds, err := NewStratifiedKFold(5, 3).Split(labels)
		require.NoError(t, err)

		for f, fold := range folds {
			counts := make(map[int]int)
			for _, row := range fold {
				counts[labels[row]]++
			}
			for cls := 0; cls < 4; cls++ {
				assert.Equal(t, 5, counts[cls], "fold %d class %d", f, cls)
			}
		}
	})

	t.Run("same seed gives the same folds", func(t *testing.T) {
		a, err := NewStratifiedKFold(5, 17).Split(labels)
		require.NoError(t, err)
		b, err := NewStratifiedKFold(5, 17).Split(labels)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("rejects degenerate inputs", func(t *testing.T) {
		_, err := NewStratifiedKFold(1, 0).Split(labels)
		assert.Error(t, err)

		_, err = NewStratifiedKFold(5, 0).Split([]int{0, 1})
		assert.Error(t, err)
	})
}

func TestCrossValidate(t *testing.T) {
	X, _, labels := clusterData(t, 3, 30, 19)

	params := NewTrainingParams()
	params.NumClass = 3
	params.NumRounds = 25
	params.EarlyStopping = 5
	params.MaxDepth = 3
	params.Seed = 99

	result, err := CrossValidate(params, X, labels, 5)
	require.NoError(t, err)

	t.Run("mean history matches the shortest fold", func(t *testing.T) {
		require.Len(t, result.FoldHistories, 5)
		minLen := len(result.FoldHistories[0])
		for _, h := range result.FoldHistories {
			require.NotEmpty(t, h)
			if len(h) < minLen {
				minLen = len(h)
			}
		}
		assert.Len(t, result.MeanHistory, minLen)
	})

	t.Run("best round minimizes the mean history", func(t *testing.T) {
		for r, e := range result.MeanHistory {
			assert.GreaterOrEqual(t, e, result.BestError, "round %d", r)
		}
		assert.InDelta(t, result.MeanHistory[result.BestRound], result.BestError, 1e-15)
	})

	t.Run("separable data cross-validates near zero error", func(t *testing.T) {
		assert.Less(t, result.BestError, 0.1)
	})

	t.Run("deterministic for a fixed seed", func(t *testing.T) {
		again, err := CrossValidate(params, X, labels, 5)
		require.NoError(t, err)
		assert.Equal(t, result.BestRound, again.BestRound)
		assert.InDelta(t, result.BestError, again.BestError, 1e-15)
		assert.Equal(t, result.MeanHistory, again.MeanHistory)
	})
}
