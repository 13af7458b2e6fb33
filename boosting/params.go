// Package boosting implements gradient-boosted decision trees for
// multiclass classification.
//
// Training grows one tree per class per boosting round against the softmax
// cross-entropy objective. Split search is exact over sorted feature
// values; leaf values come from gradient and hessian sums with L2
// regularization. The package also provides stratified k-fold
// cross-validation with per-round evaluation history and early stopping,
// which the hyperparameter search builds on.
package boosting

import (
	"github.com/liftlab/harlift/pkg/errors"
)

// TrainingParams is the fixed-shape hyperparameter record for one training
// run. A sampled configuration is immutable; configurations are compared
// only through the validation error they produce.
type TrainingParams struct {
	// Boosting schedule.
	NumRounds    int     `json:"num_rounds"`
	LearningRate float64 `json:"learning_rate"`

	// Tree shape.
	MaxDepth       int     `json:"max_depth"`
	MinChildWeight float64 `json:"min_child_weight"` // minimum hessian sum per leaf
	MaxDeltaStep   float64 `json:"max_delta_step"`   // clamp on leaf values, 0 disables

	// Regularization.
	Gamma  float64 `json:"gamma"`  // minimum loss reduction to split
	Lambda float64 `json:"lambda"` // L2 term on leaf values

	// Sampling.
	Subsample       float64 `json:"subsample"`         // row fraction per round
	ColsampleByTree float64 `json:"colsample_by_tree"` // feature fraction per tree

	// Problem shape.
	NumClass int `json:"num_class"`

	// Execution.
	Seed          int64 `json:"seed"`
	NumThreads    int   `json:"num_threads"`
	EarlyStopping int   `json:"early_stopping_rounds"` // 0 disables
}

// NewTrainingParams returns params with the package defaults filled in.
func NewTrainingParams() TrainingParams {
	return TrainingParams{
		NumRounds:       100,
		LearningRate:    0.1,
		MaxDepth:        6,
		MinChildWeight:  1.0,
		Gamma:           0.0,
		Lambda:          1.0,
		Subsample:       1.0,
		ColsampleByTree: 1.0,
		MaxDeltaStep:    0.0,
		NumClass:        2,
		Seed:            0,
		NumThreads:      1,
	}
}

// Validate checks the parameter ranges before training.
func (p *TrainingParams) Validate() error {
	switch {
	case p.NumRounds <= 0:
		return errors.NewValueError("TrainingParams", "num_rounds must be positive")
	case p.LearningRate <= 0 || p.LearningRate > 1:
		return errors.NewValueError("TrainingParams", "learning_rate must be in (0, 1]")
	case p.MaxDepth <= 0:
		return errors.NewValueError("TrainingParams", "max_depth must be positive")
	case p.NumClass < 2:
		return errors.NewValueError("TrainingParams", "num_class must be at least 2")
	case p.Subsample <= 0 || p.Subsample > 1:
		return errors.NewValueError("TrainingParams", "subsample must be in (0, 1]")
	case p.ColsampleByTree <= 0 || p.ColsampleByTree > 1:
		return errors.NewValueError("TrainingParams", "colsample_by_tree must be in (0, 1]")
	case p.MinChildWeight < 0:
		return errors.NewValueError("TrainingParams", "min_child_weight must be non-negative")
	case p.Lambda < 0:
		return errors.NewValueError("TrainingParams", "lambda must be non-negative")
	case p.Gamma < 0:
		return errors.NewValueError("TrainingParams", "gamma must be non-negative")
	case p.MaxDeltaStep < 0:
		return errors.NewValueError("TrainingParams", "max_delta_step must be non-negative")
	}
	if p.NumThreads <= 0 {
		p.NumThreads = 1
	}
	return nil
}
