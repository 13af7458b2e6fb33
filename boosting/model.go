package boosting

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/liftlab/harlift/pkg/errors"
	"github.com/liftlab/harlift/pkg/parallel"
)

// Node is a single node in a decision tree. Leaves have LeftChild and
// RightChild set to -1.
type Node struct {
	NodeID     int
	LeftChild  int
	RightChild int

	// Split information (internal nodes).
	SplitFeature int
	Threshold    float64
	DefaultLeft  bool    // direction for missing feature values
	Gain         float64 // loss reduction achieved by this split

	// Leaf information.
	LeafValue float64
	LeafCount int
}

// IsLeaf reports whether the node is a terminal node.
func (n *Node) IsLeaf() bool {
	return n.LeftChild == -1 && n.RightChild == -1
}

// Tree is one regression tree of the ensemble. For a K-class model the
// tree at position round*K + k carries the margin update of class k.
type Tree struct {
	TreeIndex     int
	ClassIndex    int
	NumLeaves     int
	ShrinkageRate float64
	Nodes         []Node
}

// Predict returns the shrunken output of this tree for one sample.
// Missing (NaN) feature values follow the node's default direction.
func (t *Tree) Predict(features []float64) float64 {
	nodeID := 0
	for nodeID >= 0 && nodeID < len(t.Nodes) {
		node := &t.Nodes[nodeID]
		if node.IsLeaf() {
			return node.LeafValue * t.ShrinkageRate
		}
		v := features[node.SplitFeature]
		switch {
		case math.IsNaN(v):
			if node.DefaultLeft {
				nodeID = node.LeftChild
			} else {
				nodeID = node.RightChild
			}
		case v <= node.Threshold:
			nodeID = node.LeftChild
		default:
			nodeID = node.RightChild
		}
	}
	return 0
}

// Model is a trained multiclass boosting ensemble. It is an opaque
// artifact: produced once by a Trainer, then read by the evaluator and the
// predictor. It is not persisted.
type Model struct {
	NumClass      int
	NumFeatures   int
	NumRounds     int
	LearningRate  float64
	BestIteration int // best round when early stopping fired, else NumRounds-1

	Trees        []Tree // round-major: round*NumClass + class
	FeatureNames []string
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{BestIteration: -1}
}

// Predict returns a rows × NumClass matrix of softmax class probabilities.
func (m *Model) Predict(X mat.Matrix) (*mat.Dense, error) {
	if len(m.Trees) == 0 {
		return nil, errors.NewNotFittedError("Model", "Predict")
	}
	rows, cols := X.Dims()
	if cols != m.NumFeatures {
		return nil, errors.NewDimensionError("Model.Predict", m.NumFeatures, cols, 1)
	}

	out := mat.NewDense(rows, m.NumClass, nil)
	parallel.ForEachChunkThreshold(rows, 0, func(start, end int) {
		features := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(features, i, X)
			out.SetRow(i, m.predictRow(features))
		}
	})
	return out, nil
}

// PredictClass returns the argmax class index (0-based) per row. Ties go
// to the lower class index.
func (m *Model) PredictClass(X mat.Matrix) ([]int, error) {
	probs, err := m.Predict(X)
	if err != nil {
		return nil, err
	}
	rows, _ := probs.Dims()
	classes := make([]int, rows)
	for i := 0; i < rows; i++ {
		best, bestProb := 0, probs.At(i, 0)
		for k := 1; k < m.NumClass; k++ {
			if p := probs.At(i, k); p > bestProb {
				best, bestProb = k, p
			}
		}
		classes[i] = best
	}
	return classes, nil
}

// predictRow accumulates per-class margins over all trees and applies
// softmax.
func (m *Model) predictRow(features []float64) []float64 {
	margins := make([]float64, m.NumClass)
	for i := range m.Trees {
		margins[i%m.NumClass] += m.Trees[i].Predict(features)
	}
	return softmax(margins)
}

// softmax converts margins to probabilities with the max-subtraction trick
// for numerical stability.
func softmax(x []float64) []float64 {
	maxVal := x[0]
	for _, v := range x[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	sum := 0.0
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Exp(v - maxVal)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// FeatureImportance returns per-feature importance scores, normalized to
// sum to 1 when any split exists. Importance types: "gain" accumulates the
// loss reduction of every split using the feature, "split" counts splits.
func (m *Model) FeatureImportance(importanceType string) ([]float64, error) {
	if importanceType != "gain" && importanceType != "split" {
		return nil, errors.NewValueError("Model.FeatureImportance",
			"importance type must be \"gain\" or \"split\"")
	}
	importance := make([]float64, m.NumFeatures)
	for _, tree := range m.Trees {
		for i := range tree.Nodes {
			node := &tree.Nodes[i]
			if node.IsLeaf() {
				continue
			}
			if importanceType == "gain" {
				importance[node.SplitFeature] += node.Gain
			} else {
				importance[node.SplitFeature]++
			}
		}
	}
	total := 0.0
	for _, v := range importance {
		total += v
	}
	if total > 0 {
		for i := range importance {
			importance[i] /= total
		}
	}
	return importance, nil
}

// RenderTree returns a text rendering of tree i, one node per line with
// indentation following depth. Feature names are used when the model has
// them.
func (m *Model) RenderTree(i int) (string, error) {
	if i < 0 || i >= len(m.Trees) {
		return "", errors.NewValueError("Model.RenderTree", "tree index out of range")
	}
	tree := &m.Trees[i]
	var sb strings.Builder
	fmt.Fprintf(&sb, "tree %d (class %d, %d leaves)\n", i, tree.ClassIndex, tree.NumLeaves)
	m.renderNode(&sb, tree, 0, 1)
	return sb.String(), nil
}

func (m *Model) renderNode(sb *strings.Builder, tree *Tree, nodeID, depth int) {
	if nodeID < 0 || nodeID >= len(tree.Nodes) {
		return
	}
	node := &tree.Nodes[nodeID]
	indent := strings.Repeat("  ", depth)
	if node.IsLeaf() {
		fmt.Fprintf(sb, "%sleaf=%.6f n=%d\n", indent, node.LeafValue, node.LeafCount)
		return
	}
	name := fmt.Sprintf("f%d", node.SplitFeature)
	if node.SplitFeature < len(m.FeatureNames) {
		name = m.FeatureNames[node.SplitFeature]
	}
	fmt.Fprintf(sb, "%s%s <= %.6g (gain=%.4f)\n", indent, name, node.Threshold, node.Gain)
	m.renderNode(sb, tree, node.LeftChild, depth+1)
	m.renderNode(sb, tree, node.RightChild, depth+1)
}
