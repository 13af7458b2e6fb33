package boosting

import (
	"math"
	"math/rand/v2"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/liftlab/harlift/pkg/errors"
	"github.com/liftlab/harlift/pkg/log"
)

// StratifiedKFold splits rows into k folds that preserve the class
// proportions of y. Rows of each class are shuffled with the given seed
// and dealt round-robin across folds, so the split is deterministic for a
// fixed seed.
type StratifiedKFold struct {
	NumFolds int
	Seed     uint64
}

// NewStratifiedKFold creates a splitter with k folds.
func NewStratifiedKFold(k int, seed uint64) *StratifiedKFold {
	return &StratifiedKFold{NumFolds: k, Seed: seed}
}

// Split returns, for each fold, the held-out row indices. Every row
// appears in exactly one fold. Fold index slices are sorted ascending.
func (s *StratifiedKFold) Split(y []int) ([][]int, error) {
	if s.NumFolds < 2 {
		return nil, errors.NewValueError("StratifiedKFold.Split", "need at least 2 folds")
	}
	if len(y) < s.NumFolds {
		return nil, errors.NewValueError("StratifiedKFold.Split", "fewer rows than folds")
	}

	byClass := make(map[int][]int)
	var classes []int
	for i, cls := range y {
		if _, ok := byClass[cls]; !ok {
			classes = append(classes, cls)
		}
		byClass[cls] = append(byClass[cls], i)
	}

	rng := rand.New(rand.NewPCG(s.Seed, s.Seed))
	folds := make([][]int, s.NumFolds)
	next := 0
	for _, cls := range classes {
		rows := byClass[cls]
		rng.Shuffle(len(rows), func(i, j int) {
			rows[i], rows[j] = rows[j], rows[i]
		})
		for _, row := range rows {
			folds[next%s.NumFolds] = append(folds[next%s.NumFolds], row)
			next++
		}
	}
	for _, fold := range folds {
		sort.Ints(fold)
	}
	return folds, nil
}

// CVResult aggregates cross-validated training of one configuration.
type CVResult struct {
	// FoldHistories[f][r] is fold f's held-out error after round r.
	FoldHistories [][]float64
	// MeanHistory[r] is the error averaged across folds, up to the
	// shortest fold history.
	MeanHistory []float64
	// BestRound is the round minimizing MeanHistory; BestError is that
	// minimum.
	BestRound int
	BestError float64
}

// CrossValidate trains params on each of k stratified folds with early
// stopping on the held-out fold, then averages the per-round held-out
// error across folds. Fold training runs in parallel; each fold seeds its
// trainer with params.Seed plus the fold index so results do not depend
// on scheduling.
func CrossValidate(params TrainingParams, X *mat.Dense, y []int, k int) (*CVResult, error) {
	folds, err := NewStratifiedKFold(k, uint64(params.Seed)).Split(y)
	if err != nil {
		return nil, err
	}

	logger := log.GetLoggerWithName("boosting.cv")
	nRows, nCols := X.Dims()
	if nRows != len(y) {
		return nil, errors.NewDimensionError("CrossValidate", nRows, len(y), 0)
	}

	histories := make([][]float64, k)
	errs := make([]error, k)
	var wg sync.WaitGroup
	for f := 0; f < k; f++ {
		wg.Add(1)
		go func(f int) {
			defer wg.Done()
			histories[f], errs[f] = runFold(params, X, y, folds[f], f, nCols)
		}(f)
	}
	wg.Wait()
	for f, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d failed", f)
		}
	}

	minLen := len(histories[0])
	for _, h := range histories[1:] {
		if len(h) < minLen {
			minLen = len(h)
		}
	}
	if minLen == 0 {
		return nil, errors.New("cross-validation produced no evaluation rounds")
	}

	result := &CVResult{
		FoldHistories: histories,
		MeanHistory:   make([]float64, minLen),
		BestError:     math.Inf(1),
	}
	for r := 0; r < minLen; r++ {
		sum := 0.0
		for f := 0; f < k; f++ {
			sum += histories[f][r]
		}
		mean := sum / float64(k)
		result.MeanHistory[r] = mean
		if mean < result.BestError {
			result.BestError = mean
			result.BestRound = r
		}
	}
	logger.Debug("cross-validation finished",
		log.CVErrorKey, result.BestError,
		"best_round", result.BestRound)
	return result, nil
}

// runFold trains on all rows outside holdout and returns the per-round
// held-out error history.
func runFold(params TrainingParams, X *mat.Dense, y []int, holdout []int, foldIdx, nCols int) ([]float64, error) {
	inHoldout := make(map[int]bool, len(holdout))
	for _, i := range holdout {
		inHoldout[i] = true
	}

	var trainRows []int
	for i := range y {
		if !inHoldout[i] {
			trainRows = append(trainRows, i)
		}
	}

	trainX, trainLabels := subsetRows(X, y, trainRows, nCols)
	valX, valY := subsetRows(X, y, holdout, nCols)

	trainY := mat.NewDense(len(trainLabels), 1, nil)
	for i, cls := range trainLabels {
		trainY.Set(i, 0, float64(cls))
	}

	foldParams := params
	foldParams.Seed = params.Seed + int64(foldIdx)
	trainer := NewTrainer(foldParams)
	if err := trainer.FitWithValidation(trainX, trainY, &ValidationData{X: valX, Y: valY}); err != nil {
		return nil, err
	}
	history := make([]float64, len(trainer.EvalHistory()))
	copy(history, trainer.EvalHistory())
	return history, nil
}

// subsetRows copies the selected rows into a fresh matrix and label set.
func subsetRows(X *mat.Dense, y []int, rows []int, nCols int) (*mat.Dense, []int) {
	out := mat.NewDense(len(rows), nCols, nil)
	labels := make([]int, len(rows))
	for i, row := range rows {
		out.SetRow(i, X.RawRowView(row))
		labels[i] = y[row]
	}
	return out, labels
}
