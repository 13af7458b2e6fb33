// Package metrics provides classification quality measures for the
// activity recognition pipeline.
package metrics

import (
	"github.com/liftlab/harlift/pkg/errors"
)

// Accuracy returns the fraction of predictions matching the true labels.
func Accuracy(yTrue, yPred []int) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty label slice")
	}
	if len(yPred) != n {
		return 0, errors.NewDimensionError("Accuracy", n, len(yPred), 0)
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ErrorRate returns 1 - Accuracy.
func ErrorRate(yTrue, yPred []int) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// ConfusionMatrix returns a numClass × numClass matrix where cell [i][j]
// counts rows with true class i predicted as class j.
func ConfusionMatrix(yTrue, yPred []int, numClass int) ([][]int, error) {
	n := len(yTrue)
	if n == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "empty label slice")
	}
	if len(yPred) != n {
		return nil, errors.NewDimensionError("ConfusionMatrix", n, len(yPred), 0)
	}
	if numClass < 2 {
		return nil, errors.NewValueError("ConfusionMatrix", "need at least 2 classes")
	}

	cm := make([][]int, numClass)
	for i := range cm {
		cm[i] = make([]int, numClass)
	}
	for i := range yTrue {
		if yTrue[i] < 0 || yTrue[i] >= numClass {
			return nil, errors.NewValueError("ConfusionMatrix", "true label out of range")
		}
		if yPred[i] < 0 || yPred[i] >= numClass {
			return nil, errors.NewValueError("ConfusionMatrix", "predicted label out of range")
		}
		cm[yTrue[i]][yPred[i]]++
	}
	return cm, nil
}

// PerClassAccuracy returns, for each class, the fraction of that class's
// rows predicted correctly (recall). Classes absent from yTrue get 0.
func PerClassAccuracy(yTrue, yPred []int, numClass int) ([]float64, error) {
	cm, err := ConfusionMatrix(yTrue, yPred, numClass)
	if err != nil {
		return nil, err
	}
	out := make([]float64, numClass)
	for cls := 0; cls < numClass; cls++ {
		total := 0
		for j := 0; j < numClass; j++ {
			total += cm[cls][j]
		}
		if total > 0 {
			out[cls] = float64(cm[cls][cls]) / float64(total)
		}
	}
	return out, nil
}
