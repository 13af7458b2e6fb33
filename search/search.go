package search

import (
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/liftlab/harlift/boosting"
	"github.com/liftlab/harlift/pkg/errors"
	"github.com/liftlab/harlift/pkg/log"
)

// TrialResult is the outcome of one search trial.
type TrialResult struct {
	Trial     int
	Params    boosting.TrainingParams
	BestRound int
	CVError   float64
	// History is the mean held-out error by boosting round, when the
	// runner provides it.
	History []float64
}

// Score is what a trial runner reports for one configuration.
type Score struct {
	CVError   float64
	BestRound int
	History   []float64
}

// TrialRunner scores one sampled configuration by cross-validation.
type TrialRunner func(params boosting.TrainingParams) (Score, error)

// Better reports whether the candidate trial should replace the
// incumbent. Only a strictly lower error wins, so among equal trials the
// earliest one is kept.
func Better(candidate, incumbent TrialResult) bool {
	return candidate.CVError < incumbent.CVError
}

// BestIndex folds Better over the results and returns the index of the
// winning trial, or -1 for an empty slice.
func BestIndex(results []TrialResult) int {
	best := -1
	for i, r := range results {
		if best < 0 || Better(r, results[best]) {
			best = i
		}
	}
	return best
}

// Searcher draws configurations from a Space and keeps the best one seen.
type Searcher struct {
	space     Space
	numTrials int
	numFolds  int
	seed      uint64
	runner    TrialRunner
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithTrials sets the number of trials.
func WithTrials(n int) Option {
	return func(s *Searcher) { s.numTrials = n }
}

// WithFolds sets the number of cross-validation folds.
func WithFolds(k int) Option {
	return func(s *Searcher) { s.numFolds = k }
}

// WithSeed sets the sampling seed.
func WithSeed(seed uint64) Option {
	return func(s *Searcher) { s.seed = seed }
}

// WithRunner replaces the default cross-validation runner.
func WithRunner(r TrialRunner) Option {
	return func(s *Searcher) { s.runner = r }
}

// NewSearcher creates a searcher over the given space.
func NewSearcher(space Space, opts ...Option) *Searcher {
	s := &Searcher{
		space:     space,
		numTrials: 10,
		numFolds:  5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes every trial against the training data and returns all
// trial results plus the index of the best one. A later trial replaces
// the incumbent only when its error is strictly lower, so ties keep the
// earlier trial. Any failing trial aborts the search.
func (s *Searcher) Run(base boosting.TrainingParams, X *mat.Dense, y []int) ([]TrialResult, int, error) {
	if s.numTrials <= 0 {
		return nil, -1, errors.NewValueError("Searcher.Run", "trial count must be positive")
	}
	if err := s.space.Validate(); err != nil {
		return nil, -1, err
	}

	runner := s.runner
	if runner == nil {
		runner = func(params boosting.TrainingParams) (Score, error) {
			result, err := boosting.CrossValidate(params, X, y, s.numFolds)
			if err != nil {
				return Score{}, err
			}
			return Score{
				CVError:   result.BestError,
				BestRound: result.BestRound,
				History:   result.MeanHistory,
			}, nil
		}
	}

	logger := log.GetLoggerWithName("search")
	rng := rand.New(rand.NewPCG(s.seed, s.seed))

	results := make([]TrialResult, 0, s.numTrials)
	bestIdx := -1
	for trial := 0; trial < s.numTrials; trial++ {
		params := s.space.SampleParams(base, rng)

		start := time.Now()
		score, err := runner(params)
		if err != nil {
			return nil, -1, errors.Wrapf(err, "trial %d failed", trial)
		}

		results = append(results, TrialResult{
			Trial:     trial,
			Params:    params,
			BestRound: score.BestRound,
			CVError:   score.CVError,
			History:   score.History,
		})
		if bestIdx < 0 || Better(results[trial], results[bestIdx]) {
			bestIdx = trial
		}
		logger.Info("trial finished",
			log.TrialKey, trial,
			log.SeedKey, params.Seed,
			log.CVErrorKey, score.CVError,
			"best_round", score.BestRound,
			"incumbent", bestIdx,
			log.DurationMsKey, time.Since(start).Milliseconds())
	}
	return results, bestIdx, nil
}
