package dataset

import (
	"math/rand/v2"
	"sort"

	"github.com/liftlab/harlift/pkg/errors"
)

// Splitter partitions a labeled table into a fit subset and a hold-out
// subset, stratified by label: each class contributes approximately
// Fraction of its rows to the fit partition. The same seed and input
// always produce the identical partition.
type Splitter struct {
	Fraction float64
	Seed     uint64
}

// NewSplitter creates a Splitter with the report defaults.
func NewSplitter(seed uint64) *Splitter {
	return &Splitter{Fraction: 0.7, Seed: seed}
}

// Split returns the row indices of the fit and hold-out partitions, each
// sorted ascending. The two partitions are disjoint and their union covers
// every row.
func (s *Splitter) Split(labels []string) (fit, holdout []int, err error) {
	if len(labels) == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "Splitter.Split")
	}
	if s.Fraction <= 0 || s.Fraction >= 1 {
		return nil, nil, errors.NewValueError("Splitter.Split",
			"split fraction must be in (0, 1)")
	}

	classIndices := make(map[string][]int)
	classOrder := make([]string, 0)
	for i, label := range labels {
		if _, ok := classIndices[label]; !ok {
			classOrder = append(classOrder, label)
		}
		classIndices[label] = append(classIndices[label], i)
	}
	// Iterate classes in first-seen order so the shuffle sequence does not
	// depend on map iteration.
	r := rand.New(rand.NewPCG(s.Seed, s.Seed))
	for _, label := range classOrder {
		indices := classIndices[label]
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		n := int(float64(len(indices))*s.Fraction + 0.5)
		if n < 1 {
			n = 1
		}
		if n >= len(indices) {
			n = len(indices) - 1
		}
		fit = append(fit, indices[:n]...)
		holdout = append(holdout, indices[n:]...)
	}

	sort.Ints(fit)
	sort.Ints(holdout)
	return fit, holdout, nil
}
