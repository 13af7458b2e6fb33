// Package evaluation scores a trained model against held-out data.
package evaluation

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/liftlab/harlift/boosting"
	"github.com/liftlab/harlift/metrics"
	"github.com/liftlab/harlift/pkg/errors"
)

// FeatureRank pairs a feature name with its normalized gain importance.
type FeatureRank struct {
	Name       string
	Importance float64
}

// Result holds the hold-out evaluation of a model.
type Result struct {
	Accuracy        float64
	ErrorRate       float64
	ConfusionMatrix [][]int
	// PerClassRecall[c] is the fraction of class c's hold-out rows
	// predicted correctly.
	PerClassRecall []float64
	// Importance lists features by descending gain share. Features with
	// equal importance keep their model order.
	Importance []FeatureRank
}

// Evaluate predicts X with the model and scores the predictions against
// the true class indices in y.
func Evaluate(model *boosting.Model, X *mat.Dense, y []int) (*Result, error) {
	if model == nil {
		return nil, errors.NewValueError("Evaluate", "nil model")
	}
	pred, err := model.PredictClass(X)
	if err != nil {
		return nil, errors.Wrap(err, "hold-out prediction failed")
	}

	acc, err := metrics.Accuracy(y, pred)
	if err != nil {
		return nil, err
	}
	errRate, err := metrics.ErrorRate(y, pred)
	if err != nil {
		return nil, err
	}
	cm, err := metrics.ConfusionMatrix(y, pred, model.NumClass)
	if err != nil {
		return nil, err
	}
	recall, err := metrics.PerClassAccuracy(y, pred, model.NumClass)
	if err != nil {
		return nil, err
	}
	ranks, err := RankImportance(model)
	if err != nil {
		return nil, err
	}

	return &Result{
		Accuracy:        acc,
		ErrorRate:       errRate,
		ConfusionMatrix: cm,
		PerClassRecall:  recall,
		Importance:      ranks,
	}, nil
}

// RankImportance returns the model's features sorted by descending gain
// importance. The sort is stable so equally important features keep the
// model's column order.
func RankImportance(model *boosting.Model) ([]FeatureRank, error) {
	imp, err := model.FeatureImportance("gain")
	if err != nil {
		return nil, err
	}
	ranks := make([]FeatureRank, len(imp))
	for i, v := range imp {
		name := ""
		if i < len(model.FeatureNames) {
			name = model.FeatureNames[i]
		}
		ranks[i] = FeatureRank{Name: name, Importance: v}
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Importance > ranks[j].Importance
	})
	return ranks, nil
}
