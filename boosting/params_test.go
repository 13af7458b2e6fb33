package boosting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainingParamsValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		params := NewTrainingParams()
		assert.NoError(t, params.Validate())
	})

	t.Run("rejects non-positive rounds", func(t *testing.T) {
		params := NewTrainingParams()
		params.NumRounds = 0
		assert.Error(t, params.Validate())
	})

	t.Run("rejects learning rate outside (0, 1]", func(t *testing.T) {
		for _, lr := range []float64{0, -0.1, 1.5} {
			params := NewTrainingParams()
			params.LearningRate = lr
			assert.Error(t, params.Validate(), "learning rate %v", lr)
		}
	})

	t.Run("rejects bad subsample ratios", func(t *testing.T) {
		params := NewTrainingParams()
		params.Subsample = 0
		assert.Error(t, params.Validate())

		params = NewTrainingParams()
		params.ColsampleByTree = 1.2
		assert.Error(t, params.Validate())
	})

	t.Run("rejects fewer than two classes", func(t *testing.T) {
		params := NewTrainingParams()
		params.NumClass = 1
		assert.Error(t, params.Validate())
	})

	t.Run("normalizes non-positive thread count", func(t *testing.T) {
		params := NewTrainingParams()
		params.NumThreads = 0
		require.NoError(t, params.Validate())
		assert.Equal(t, 1, params.NumThreads)
	})
}
