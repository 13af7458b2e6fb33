package boosting

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/liftlab/harlift/pkg/errors"
	"github.com/liftlab/harlift/pkg/log"
)

// EarlyStopping tracks the best validation score and stops training after
// a fixed number of consecutive non-improving rounds. Improvement is
// strict: a round matching the best score counts as non-improving.
type EarlyStopping struct {
	Rounds          int
	BestScore       float64
	BestIteration   int
	RoundsNoImprove int
	Enabled         bool
}

// NewEarlyStopping creates a handler that stops after rounds non-improving
// rounds of a minimized metric. rounds <= 0 disables early stopping.
func NewEarlyStopping(rounds int) *EarlyStopping {
	if rounds <= 0 {
		return &EarlyStopping{Enabled: false}
	}
	return &EarlyStopping{
		Rounds:    rounds,
		BestScore: math.Inf(1),
		Enabled:   true,
	}
}

// Update records the score of one round and reports whether training
// should stop.
func (es *EarlyStopping) Update(iteration int, score float64) bool {
	if !es.Enabled {
		return false
	}
	if score < es.BestScore {
		es.BestScore = score
		es.BestIteration = iteration
		es.RoundsNoImprove = 0
	} else {
		es.RoundsNoImprove++
	}
	return es.RoundsNoImprove >= es.Rounds
}

// ValidationData is a held-out set evaluated after every boosting round.
type ValidationData struct {
	X *mat.Dense
	Y []int
}

// FitWithValidation trains like Fit but evaluates the multiclass error
// rate on valData after every round, records it in EvalHistory, and stops
// early once the error has not improved for EarlyStopping consecutive
// rounds. On an early stop the ensemble is truncated to the best round.
//
// EvalHistory()[r] is the held-out error after round r for every round
// actually trained, including the non-improving tail that triggered the
// stop.
func (t *Trainer) FitWithValidation(X, y mat.Matrix, valData *ValidationData) (err error) {
	defer errors.Recover(&err, "Trainer.FitWithValidation")

	if valData == nil || valData.X == nil || len(valData.Y) == 0 {
		return errors.NewValueError("Trainer.FitWithValidation", "validation data is required")
	}
	if err := t.setData(X, y); err != nil {
		return err
	}
	valRows, valCols := valData.X.Dims()
	if valCols != t.nCols {
		return errors.NewDimensionError("Trainer.FitWithValidation", t.nCols, valCols, 1)
	}
	if valRows != len(valData.Y) {
		return errors.NewDimensionError("Trainer.FitWithValidation", valRows, len(valData.Y), 0)
	}

	logger := log.GetLoggerWithName("boosting.trainer")

	// Validation margins are maintained incrementally so each round costs
	// one pass over the new trees only.
	valMargins := make([][]float64, valRows)
	for i := range valMargins {
		valMargins[i] = make([]float64, t.params.NumClass)
	}
	t.evalHistory = t.evalHistory[:0]

	stopper := NewEarlyStopping(t.params.EarlyStopping)
	features := make([]float64, t.nCols)
	for round := 0; round < t.params.NumRounds; round++ {
		if err := t.boostRound(round); err != nil {
			return errors.Wrapf(err, "boosting round %d failed", round)
		}

		roundTrees := t.trees[round*t.params.NumClass:]
		mistakes := 0
		for i := 0; i < valRows; i++ {
			mat.Row(features, i, valData.X)
			for k := 0; k < t.params.NumClass; k++ {
				valMargins[i][k] += roundTrees[k].Predict(features)
			}
			if argmax(valMargins[i]) != valData.Y[i] {
				mistakes++
			}
		}
		valError := float64(mistakes) / float64(valRows)
		t.evalHistory = append(t.evalHistory, valError)

		if stopper.Update(round, valError) {
			t.bestIteration = stopper.BestIteration
			t.trees = t.trees[:(stopper.BestIteration+1)*t.params.NumClass]
			logger.Debug("early stopping",
				log.RoundKey, round,
				"best_round", stopper.BestIteration,
				"best_error", stopper.BestScore)
			break
		}
	}
	if t.bestIteration < 0 && stopper.Enabled {
		t.bestIteration = stopper.BestIteration
	}
	return nil
}

// EvalHistory returns the held-out error after each trained round from the
// last FitWithValidation call.
func (t *Trainer) EvalHistory() []float64 {
	return t.evalHistory
}

// argmax returns the index of the largest value, lowest index on ties.
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
