package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liftlab/harlift/boosting"
	"github.com/liftlab/harlift/pkg/errors"
)

func TestSearcherRun(t *testing.T) {
	base := boosting.NewTrainingParams()
	base.NumClass = 5

	t.Run("runs exactly the configured number of trials", func(t *testing.T) {
		calls := 0
		s := NewSearcher(DefaultSpace(),
			WithTrials(10),
			WithSeed(1),
			WithRunner(func(boosting.TrainingParams) (Score, error) {
				calls++
				return Score{CVError: 0.5}, nil
			}))
		results, _, err := s.Run(base, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 10, calls)
		assert.Len(t, results, 10)
	})

	t.Run("keeps the trial with the lowest error", func(t *testing.T) {
		scores := []float64{0.4, 0.2, 0.3, 0.1, 0.25}
		i := 0
		s := NewSearcher(DefaultSpace(),
			WithTrials(len(scores)),
			WithSeed(2),
			WithRunner(func(boosting.TrainingParams) (Score, error) {
				score := scores[i]
				i++
				return Score{CVError: score, BestRound: i}, nil
			}))
		_, best, err := s.Run(base, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, best)
	})

	t.Run("ties keep the earlier trial", func(t *testing.T) {
		scores := []float64{0.3, 0.2, 0.2, 0.2}
		i := 0
		s := NewSearcher(DefaultSpace(),
			WithTrials(len(scores)),
			WithSeed(3),
			WithRunner(func(boosting.TrainingParams) (Score, error) {
				score := scores[i]
				i++
				return Score{CVError: score}, nil
			}))
		_, best, err := s.Run(base, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, best)
	})

	t.Run("running best error never increases", func(t *testing.T) {
		scores := []float64{0.5, 0.6, 0.3, 0.4, 0.3, 0.1}
		i := 0
		s := NewSearcher(DefaultSpace(),
			WithTrials(len(scores)),
			WithSeed(6),
			WithRunner(func(boosting.TrainingParams) (Score, error) {
				score := scores[i]
				i++
				return Score{CVError: score}, nil
			}))
		results, _, err := s.Run(base, nil, nil)
		require.NoError(t, err)

		best := results[0].CVError
		for _, r := range results[1:] {
			if r.CVError < best {
				best = r.CVError
			}
			incumbent := results[BestIndex(results[:r.Trial+1])]
			assert.Equal(t, best, incumbent.CVError, "after trial %d", r.Trial)
		}
	})

	t.Run("a failing trial aborts the search", func(t *testing.T) {
		i := 0
		s := NewSearcher(DefaultSpace(),
			WithTrials(5),
			WithSeed(4),
			WithRunner(func(boosting.TrainingParams) (Score, error) {
				i++
				if i == 3 {
					return Score{}, errors.New("training blew up")
				}
				return Score{CVError: 0.5}, nil
			}))
		_, _, err := s.Run(base, nil, nil)
		require.Error(t, err)
		assert.Equal(t, 3, i)
	})

	t.Run("each trial gets its own seed", func(t *testing.T) {
		var seeds []int64
		s := NewSearcher(DefaultSpace(),
			WithTrials(10),
			WithSeed(5),
			WithRunner(func(p boosting.TrainingParams) (Score, error) {
				seeds = append(seeds, p.Seed)
				return Score{CVError: 0.5}, nil
			}))
		_, _, err := s.Run(base, nil, nil)
		require.NoError(t, err)

		unique := make(map[int64]bool)
		for _, seed := range seeds {
			unique[seed] = true
		}
		assert.Len(t, unique, 10)
	})

	t.Run("rejects a non-positive trial count", func(t *testing.T) {
		s := NewSearcher(DefaultSpace(), WithTrials(0))
		_, _, err := s.Run(base, nil, nil)
		assert.Error(t, err)
	})
}

func TestBetter(t *testing.T) {
	a := TrialResult{Trial: 0, CVError: 0.2}
	b := TrialResult{Trial: 1, CVError: 0.2}
	c := TrialResult{Trial: 2, CVError: 0.1}

	assert.False(t, Better(b, a), "equal error must not replace the incumbent")
	assert.True(t, Better(c, a))
	assert.False(t, Better(a, c))

	assert.Equal(t, -1, BestIndex(nil))
	assert.Equal(t, 0, BestIndex([]TrialResult{a, b}))
	assert.Equal(t, 2, BestIndex([]TrialResult{a, b, c}))
}
