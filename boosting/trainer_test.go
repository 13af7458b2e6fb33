package boosting

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// clusterData builds rowsPerClass points per class around well separated
// 2-D centers, with small deterministic jitter.
func clusterData(t *testing.T, numClass, rowsPerClass int, seed uint64) (*mat.Dense, *mat.Dense, []int) {
	t.Helper()

	rng := rand.New(rand.NewPCG(seed, seed))
	n := numClass * rowsPerClass
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	labels := make([]int, n)
	for cls := 0; cls < numClass; cls++ {
		cx := float64(cls) * 10.0
		cy := float64(cls) * -10.0
		for j := 0; j < rowsPerClass; j++ {
			row := cls*rowsPerClass + j
			X.Set(row, 0, cx+rng.Float64())
			X.Set(row, 1, cy+rng.Float64())
			y.Set(row, 0, float64(cls))
			labels[row] = cls
		}
	}
	return X, y, labels
}

func TestTrainerFit(t *testing.T) {
	t.Run("learns separable clusters", func(t *testing.T) {
		X, y, labels := clusterData(t, 3, 30, 7)

		params := NewTrainingParams()
		params.NumClass = 3
		params.NumRounds = 20
		params.MaxDepth = 3
		params.Seed = 42

		trainer := NewTrainer(params)
		require.NoError(t, trainer.Fit(X, y))

		model := trainer.GetModel()
		pred, err := model.PredictClass(X)
		require.NoError(t, err)
		correct := 0
		for i, cls := range pred {
			if cls == labels[i] {
				correct++
			}
		}
		acc := float64(correct) / float64(len(labels))
		assert.Greater(t, acc, 0.95, "training accuracy %v too low", acc)
	})

	t.Run("same seed reproduces the model", func(t *testing.T) {
		X, y, _ := clusterData(t, 3, 20, 11)

		params := NewTrainingParams()
		params.NumClass = 3
		params.NumRounds = 10
		params.Subsample = 0.8
		params.ColsampleByTree = 0.5
		params.Seed = 1234
		params.NumThreads = 3

		train := func() *Model {
			trainer := NewTrainer(params)
			require.NoError(t, trainer.Fit(X, y))
			return trainer.GetModel()
		}
		a, b := train(), train()

		require.Equal(t, len(a.Trees), len(b.Trees))
		probsA, err := a.Predict(X)
		require.NoError(t, err)
		probsB, err := b.Predict(X)
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(probsA, probsB, 1e-12))
	})

	t.Run("rejects out-of-range labels", func(t *testing.T) {
		X := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})
		y := mat.NewDense(4, 1, []float64{0, 1, 2, 5})

		params := NewTrainingParams()
		params.NumClass = 3
		trainer := NewTrainer(params)
		assert.Error(t, trainer.Fit(X, y))
	})

	t.Run("rejects mismatched label count", func(t *testing.T) {
		X := mat.NewDense(4, 2, nil)
		y := mat.NewDense(3, 1, nil)

		trainer := NewTrainer(NewTrainingParams())
		assert.Error(t, trainer.Fit(X, y))
	})

	t.Run("handles missing feature values", func(t *testing.T) {
		X, y, _ := clusterData(t, 2, 25, 3)
		X.Set(0, 0, math.NaN())
		X.Set(7, 1, math.NaN())

		params := NewTrainingParams()
		params.NumClass = 2
		params.NumRounds = 5
		trainer := NewTrainer(params)
		require.NoError(t, trainer.Fit(X, y))

		pred, err := trainer.GetModel().PredictClass(X)
		require.NoError(t, err)
		assert.Len(t, pred, 50)
	})
}

func TestGetModel(t *testing.T) {
	X, y, _ := clusterData(t, 3, 15, 5)

	params := NewTrainingParams()
	params.NumClass = 3
	params.NumRounds = 8
	trainer := NewTrainer(params)
	require.NoError(t, trainer.Fit(X, y))

	model := trainer.GetModel()
	assert.Equal(t, 3, model.NumClass)
	assert.Equal(t, 2, model.NumFeatures)
	assert.Equal(t, 8, model.NumRounds)
	assert.Len(t, model.Trees, 8*3)
	// Fit has no validation set, so the best iteration is the last round.
	assert.Equal(t, 7, model.BestIteration)
}
