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

const hessEpsilon = 1e-16

// Trainer runs multiclass gradient boosting. All randomness (row and
// feature sampling) comes from a generator seeded explicitly from
// TrainingParams.Seed, never from ambient entropy, so a run is fully
// reproducible.
type Trainer struct {
	params TrainingParams

	X     *mat.Dense
	y     []int
	nRows int
	nCols int

	// margins[i][k] is the accumulated boosting margin of row i for
	// class k; probs holds the softmax of margins for the current round.
	margins [][]float64
	probs   [][]float64

	trees         []Tree
	bestIteration int
	evalHistory   []float64
	rng           *rand.Rand
}

// NewTrainer creates a trainer for the given configuration.
func NewTrainer(params TrainingParams) *Trainer {
	return &Trainer{
		params:        params,
		bestIteration: -1,
		rng:           rand.New(rand.NewPCG(uint64(params.Seed), uint64(params.Seed))),
	}
}

// Fit trains the ensemble on X with 0-based integer class labels in the
// single-column matrix y.
func (t *Trainer) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "Trainer.Fit")

	if err := t.setData(X, y); err != nil {
		return err
	}

	logger := log.GetLoggerWithName("boosting.trainer")
	logger.Debug("training started",
		log.SamplesKey, t.nRows,
		log.FeaturesKey, t.nCols,
		log.SeedKey, t.params.Seed)

	for round := 0; round < t.params.NumRounds; round++ {
		if err := t.boostRound(round); err != nil {
			return errors.Wrapf(err, "boosting round %d failed", round)
		}
	}
	return nil
}

// setData validates and captures the training matrices.
func (t *Trainer) setData(X, y mat.Matrix) error {
	if err := t.params.Validate(); err != nil {
		return err
	}
	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.Wrap(errors.ErrEmptyData, "Trainer.Fit")
	}
	if yRows != rows {
		return errors.NewDimensionError("Trainer.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("Trainer.Fit", 1, yCols, 1)
	}

	t.X = mat.DenseCopyOf(X)
	t.nRows, t.nCols = rows, cols
	t.y = make([]int, rows)
	for i := 0; i < rows; i++ {
		cls := int(y.At(i, 0))
		if cls < 0 || cls >= t.params.NumClass {
			return errors.NewValueError("Trainer.Fit", "class label out of range")
		}
		t.y[i] = cls
	}

	t.margins = make([][]float64, rows)
	t.probs = make([][]float64, rows)
	for i := range t.margins {
		t.margins[i] = make([]float64, t.params.NumClass)
		t.probs[i] = make([]float64, t.params.NumClass)
	}
	t.trees = t.trees[:0]
	t.bestIteration = -1
	t.evalHistory = t.evalHistory[:0]
	return nil
}

// boostRound grows one tree per class and folds their outputs into the
// margins. Row and feature subsets are drawn sequentially from the
// trainer's generator before any worker starts, so parallel tree builds
// stay deterministic.
func (t *Trainer) boostRound(round int) error {
	for i := 0; i < t.nRows; i++ {
		copy(t.probs[i], softmax(t.margins[i]))
	}

	rowIdx := t.sampleRows()
	featureSets := make([][]int, t.params.NumClass)
	for k := range featureSets {
		featureSets[k] = t.sampleFeatures()
	}

	roundTrees := make([]Tree, t.params.NumClass)
	sem := make(chan struct{}, t.params.NumThreads)
	var wg sync.WaitGroup
	for k := 0; k < t.params.NumClass; k++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(k int) {
			defer wg.Done()
			defer func() { <-sem }()
			roundTrees[k] = t.buildClassTree(round, k, rowIdx, featureSets[k])
		}(k)
	}
	wg.Wait()

	features := make([]float64, t.nCols)
	for i := 0; i < t.nRows; i++ {
		mat.Row(features, i, t.X)
		for k := range roundTrees {
			t.margins[i][k] += roundTrees[k].Predict(features)
		}
	}
	t.trees = append(t.trees, roundTrees...)
	return nil
}

// sampleRows draws the row subset for one round, without replacement.
func (t *Trainer) sampleRows() []int {
	if t.params.Subsample >= 1.0 {
		rows := make([]int, t.nRows)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	n := int(float64(t.nRows) * t.params.Subsample)
	if n < 1 {
		n = 1
	}
	perm := t.rng.Perm(t.nRows)
	rows := perm[:n]
	sort.Ints(rows)
	return rows
}

// sampleFeatures draws the feature subset for one tree, without
// replacement.
func (t *Trainer) sampleFeatures() []int {
	if t.params.ColsampleByTree >= 1.0 {
		features := make([]int, t.nCols)
		for i := range features {
			features[i] = i
		}
		return features
	}
	n := int(float64(t.nCols) * t.params.ColsampleByTree)
	if n < 1 {
		n = 1
	}
	perm := t.rng.Perm(t.nCols)
	features := perm[:n]
	sort.Ints(features)
	return features
}

// buildClassTree grows the round's tree for class k from the softmax
// gradients of the sampled rows.
func (t *Trainer) buildClassTree(round, k int, rowIdx, features []int) Tree {
	grad := make([]float64, t.nRows)
	hess := make([]float64, t.nRows)
	for _, i := range rowIdx {
		p := t.probs[i][k]
		target := 0.0
		if t.y[i] == k {
			target = 1.0
		}
		grad[i] = p - target
		h := p * (1 - p)
		if h < hessEpsilon {
			h = hessEpsilon
		}
		hess[i] = h
	}

	tree := Tree{
		TreeIndex:     round*t.params.NumClass + k,
		ClassIndex:    k,
		ShrinkageRate: t.params.LearningRate,
	}
	t.buildNode(&tree, rowIdx, grad, hess, features, 0)
	for i := range tree.Nodes {
		if tree.Nodes[i].IsLeaf() {
			tree.NumLeaves++
		}
	}
	return tree
}

// buildNode recursively grows the tree and returns the new node's index.
func (t *Trainer) buildNode(tree *Tree, indices []int, grad, hess []float64, features []int, depth int) int {
	nodeID := len(tree.Nodes)

	sumGrad, sumHess := 0.0, 0.0
	for _, i := range indices {
		sumGrad += grad[i]
		sumHess += hess[i]
	}

	if depth >= t.params.MaxDepth || len(indices) < 2 {
		tree.Nodes = append(tree.Nodes, t.newLeaf(nodeID, sumGrad, sumHess, len(indices)))
		return nodeID
	}

	best := t.findBestSplit(indices, grad, hess, features)
	if best.Gain <= t.params.Gamma {
		tree.Nodes = append(tree.Nodes, t.newLeaf(nodeID, sumGrad, sumHess, len(indices)))
		return nodeID
	}

	tree.Nodes = append(tree.Nodes, Node{
		NodeID:       nodeID,
		SplitFeature: best.Feature,
		Threshold:    best.Threshold,
		DefaultLeft:  true,
		Gain:         best.Gain,
		LeftChild:    -1,
		RightChild:   -1,
	})

	left, right := t.splitData(indices, best)
	leftChild := t.buildNode(tree, left, grad, hess, features, depth+1)
	rightChild := t.buildNode(tree, right, grad, hess, features, depth+1)
	tree.Nodes[nodeID].LeftChild = leftChild
	tree.Nodes[nodeID].RightChild = rightChild
	return nodeID
}

// newLeaf computes the regularized leaf value, clamped by max_delta_step
// when configured.
func (t *Trainer) newLeaf(nodeID int, sumGrad, sumHess float64, count int) Node {
	value := -sumGrad / (sumHess + t.params.Lambda + hessEpsilon)
	if step := t.params.MaxDeltaStep; step > 0 {
		if value > step {
			value = step
		} else if value < -step {
			value = -step
		}
	}
	return Node{
		NodeID:     nodeID,
		LeafValue:  value,
		LeafCount:  count,
		LeftChild:  -1,
		RightChild: -1,
	}
}

// splitInfo describes a candidate split.
type splitInfo struct {
	Feature   int
	Threshold float64
	Gain      float64
}

// findBestSplit scans the allowed features for the highest-gain split.
func (t *Trainer) findBestSplit(indices []int, grad, hess []float64, features []int) splitInfo {
	best := splitInfo{Gain: math.Inf(-1)}
	for _, f := range features {
		if split := t.findBestSplitForFeature(indices, grad, hess, f); split.Gain > best.Gain {
			best = split
		}
	}
	return best
}

// findBestSplitForFeature performs an exact split scan over the sorted
// values of one feature. Rows with a missing value are excluded from the
// scan; at prediction time they follow the default (left) direction.
func (t *Trainer) findBestSplitForFeature(indices []int, grad, hess []float64, feature int) splitInfo {
	type entry struct {
		value float64
		idx   int
	}
	entries := make([]entry, 0, len(indices))
	for _, i := range indices {
		v := t.X.At(i, feature)
		if !math.IsNaN(v) {
			entries = append(entries, entry{value: v, idx: i})
		}
	}
	best := splitInfo{Feature: feature, Gain: math.Inf(-1)}
	if len(entries) < 2 {
		return best
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].value < entries[b].value })

	totalGrad, totalHess := 0.0, 0.0
	for _, e := range entries {
		totalGrad += grad[e.idx]
		totalHess += hess[e.idx]
	}

	lambda := t.params.Lambda
	parentScore := totalGrad * totalGrad / (totalHess + lambda)

	leftGrad, leftHess := 0.0, 0.0
	for i := 0; i < len(entries)-1; i++ {
		leftGrad += grad[entries[i].idx]
		leftHess += hess[entries[i].idx]
		if entries[i].value == entries[i+1].value {
			continue
		}
		rightGrad := totalGrad - leftGrad
		rightHess := totalHess - leftHess
		if leftHess < t.params.MinChildWeight || rightHess < t.params.MinChildWeight {
			continue
		}
		gain := 0.5 * (leftGrad*leftGrad/(leftHess+lambda) +
			rightGrad*rightGrad/(rightHess+lambda) - parentScore)
		if gain > best.Gain {
			best.Gain = gain
			best.Threshold = (entries[i].value + entries[i+1].value) / 2
		}
	}
	return best
}

// splitData partitions rows on the chosen split. Missing values go left,
// matching the default direction recorded on the node.
func (t *Trainer) splitData(indices []int, split splitInfo) (left, right []int) {
	for _, i := range indices {
		v := t.X.At(i, split.Feature)
		if math.IsNaN(v) || v <= split.Threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

// GetModel returns the trained ensemble.
func (t *Trainer) GetModel() *Model {
	model := NewModel()
	model.Trees = make([]Tree, len(t.trees))
	copy(model.Trees, t.trees)
	model.NumClass = t.params.NumClass
	model.NumFeatures = t.nCols
	model.NumRounds = len(t.trees) / t.params.NumClass
	model.LearningRate = t.params.LearningRate
	model.BestIteration = t.bestIteration
	if model.BestIteration < 0 {
		model.BestIteration = model.NumRounds - 1
	}
	return model
}
