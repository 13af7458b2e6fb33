// Package search implements randomized hyperparameter search over
// boosting configurations scored by cross-validation.
package search

import (
	"math/rand/v2"

	"golang.org/x/exp/constraints"

	"github.com/liftlab/harlift/boosting"
	"github.com/liftlab/harlift/pkg/errors"
)

// Number constrains range endpoints to ordered numeric types.
type Number interface {
	constraints.Integer | constraints.Float
}

// Range is a closed interval a hyperparameter is sampled from.
type Range[T Number] struct {
	Min T
	Max T
}

// Sample draws a uniform value from the interval. Integer ranges are
// inclusive of both endpoints.
func (r Range[T]) Sample(rng *rand.Rand) T {
	if r.Min >= r.Max {
		return r.Min
	}
	switch any(r.Min).(type) {
	case float32, float64:
		span := float64(r.Max) - float64(r.Min)
		return r.Min + T(rng.Float64()*span)
	default:
		span := int64(r.Max) - int64(r.Min)
		return r.Min + T(rng.Int64N(span+1))
	}
}

// Validate reports whether the interval is ordered.
func (r Range[T]) Validate() error {
	if r.Min > r.Max {
		return errors.NewValueError("Range", "min exceeds max")
	}
	return nil
}

// Space holds the sampling ranges for every tuned hyperparameter.
// Parameters not listed here are copied unchanged from the base config.
type Space struct {
	MaxDepth        Range[int]
	LearningRate    Range[float64]
	Gamma           Range[float64]
	Lambda          Range[float64]
	Subsample       Range[float64]
	ColsampleByTree Range[float64]
	MinChildWeight  Range[float64]
	MaxDeltaStep    Range[float64]
}

// DefaultSpace returns the search ranges used for the activity
// recognition model.
func DefaultSpace() Space {
	return Space{
		MaxDepth:        Range[int]{Min: 5, Max: 15},
		LearningRate:    Range[float64]{Min: 0.01, Max: 0.3},
		Gamma:           Range[float64]{Min: 0, Max: 0.2},
		Lambda:          Range[float64]{Min: 0.5, Max: 2.0},
		Subsample:       Range[float64]{Min: 0.5, Max: 1.0},
		ColsampleByTree: Range[float64]{Min: 0.5, Max: 1.0},
		MinChildWeight:  Range[float64]{Min: 1, Max: 10},
		MaxDeltaStep:    Range[float64]{Min: 0, Max: 10},
	}
}

// Validate checks every range in the space.
func (s Space) Validate() error {
	if err := s.MaxDepth.Validate(); err != nil {
		return errors.Wrap(err, "max_depth")
	}
	if err := s.LearningRate.Validate(); err != nil {
		return errors.Wrap(err, "learning_rate")
	}
	if err := s.Gamma.Validate(); err != nil {
		return errors.Wrap(err, "gamma")
	}
	if err := s.Lambda.Validate(); err != nil {
		return errors.Wrap(err, "lambda")
	}
	if err := s.Subsample.Validate(); err != nil {
		return errors.Wrap(err, "subsample")
	}
	if err := s.ColsampleByTree.Validate(); err != nil {
		return errors.Wrap(err, "colsample_by_tree")
	}
	if err := s.MinChildWeight.Validate(); err != nil {
		return errors.Wrap(err, "min_child_weight")
	}
	if err := s.MaxDeltaStep.Validate(); err != nil {
		return errors.Wrap(err, "max_delta_step")
	}
	return nil
}

// SampleParams draws one configuration from the space, starting from base
// and overwriting the tuned fields. The boosting seed is drawn from the
// same generator so each trial trains with its own seed.
func (s Space) SampleParams(base boosting.TrainingParams, rng *rand.Rand) boosting.TrainingParams {
	params := base
	params.MaxDepth = s.MaxDepth.Sample(rng)
	params.LearningRate = s.LearningRate.Sample(rng)
	params.Gamma = s.Gamma.Sample(rng)
	params.Lambda = s.Lambda.Sample(rng)
	params.Subsample = s.Subsample.Sample(rng)
	params.ColsampleByTree = s.ColsampleByTree.Sample(rng)
	params.MinChildWeight = s.MinChildWeight.Sample(rng)
	params.MaxDeltaStep = s.MaxDeltaStep.Sample(rng)
	params.Seed = int64(rng.Uint64() >> 1)
	return params
}
