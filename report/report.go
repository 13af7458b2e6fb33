// Package report renders the pipeline's findings as text and charts.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/liftlab/harlift/boosting"
	"github.com/liftlab/harlift/evaluation"
	"github.com/liftlab/harlift/pkg/errors"
	"github.com/liftlab/harlift/search"
)

// DataSummary describes one loaded table before and after cleaning.
type DataSummary struct {
	Name        string
	RawRows     int
	RawCols     int
	CleanCols   int
	DroppedCols int
}

// SplitSummary describes the stratified train/hold-out split.
type SplitSummary struct {
	FitRows     int
	HoldoutRows int
	Fraction    float64
	ClassCounts map[string]int
}

// Report collects everything the final document presents.
type Report struct {
	Tables      []DataSummary
	Split       SplitSummary
	Trials      []search.TrialResult
	BestTrial   int
	FinalParams boosting.TrainingParams
	Holdout     *evaluation.Result
	// Trees holds text renderings of the final model's first trees.
	Trees []string
	// Predictions maps unlabeled row identifiers to predicted class
	// letters, in input order.
	Predictions []Prediction
	TopFeatures int
}

// Prediction is one scored unlabeled row.
type Prediction struct {
	ID    string
	Class string
}

// Render writes the full text report.
func (r *Report) Render() (string, error) {
	if r.Holdout == nil {
		return "", errors.NewValueError("Report.Render", "missing hold-out results")
	}
	if r.BestTrial < 0 || r.BestTrial >= len(r.Trials) {
		return "", errors.NewValueError("Report.Render", "best trial index out of range")
	}

	var sb strings.Builder
	r.renderData(&sb)
	r.renderSplit(&sb)
	r.renderTrials(&sb)
	r.renderModel(&sb)
	r.renderTrees(&sb)
	r.renderHoldout(&sb)
	r.renderPredictions(&sb)
	return sb.String(), nil
}

func (r *Report) renderData(sb *strings.Builder) {
	sb.WriteString("== Data ==\n")
	for _, tbl := range r.Tables {
		fmt.Fprintf(sb, "%s: %d rows, %d columns (%d kept after cleaning, %d dropped)\n",
			tbl.Name, tbl.RawRows, tbl.RawCols, tbl.CleanCols, tbl.DroppedCols)
	}
	sb.WriteString("\n")
}

func (r *Report) renderSplit(sb *strings.Builder) {
	sb.WriteString("== Split ==\n")
	fmt.Fprintf(sb, "fit: %d rows, hold-out: %d rows (fraction %.2f)\n",
		r.Split.FitRows, r.Split.HoldoutRows, r.Split.Fraction)
	if len(r.Split.ClassCounts) > 0 {
		classes := sortedKeys(r.Split.ClassCounts)
		for _, cls := range classes {
			fmt.Fprintf(sb, "  class %s: %d fit rows\n", cls, r.Split.ClassCounts[cls])
		}
	}
	sb.WriteString("\n")
}

func (r *Report) renderTrials(sb *strings.Builder) {
	sb.WriteString("== Hyperparameter search ==\n")
	for _, trial := range r.Trials {
		marker := " "
		if trial.Trial == r.BestTrial {
			marker = "*"
		}
		fmt.Fprintf(sb, "%s trial %2d: cv_error=%.4f best_round=%d seed=%d depth=%d lr=%.3f subsample=%.2f\n",
			marker, trial.Trial, trial.CVError, trial.BestRound, trial.Params.Seed,
			trial.Params.MaxDepth, trial.Params.LearningRate, trial.Params.Subsample)
	}
	sb.WriteString("\n")
}

func (r *Report) renderModel(sb *strings.Builder) {
	sb.WriteString("== Final model ==\n")
	p := r.FinalParams
	fmt.Fprintf(sb, "rounds=%d depth=%d lr=%.3f gamma=%.3f lambda=%.3f subsample=%.2f colsample=%.2f seed=%d\n\n",
		p.NumRounds, p.MaxDepth, p.LearningRate, p.Gamma, p.Lambda,
		p.Subsample, p.ColsampleByTree, p.Seed)
}

func (r *Report) renderTrees(sb *strings.Builder) {
	if len(r.Trees) == 0 {
		return
	}
	sb.WriteString("== Trees ==\n")
	for _, tree := range r.Trees {
		sb.WriteString(tree)
	}
	sb.WriteString("\n")
}

func (r *Report) renderHoldout(sb *strings.Builder) {
	sb.WriteString("== Hold-out evaluation ==\n")
	fmt.Fprintf(sb, "accuracy: %.4f\n", r.Holdout.Accuracy)
	fmt.Fprintf(sb, "out-of-sample error: %.4f\n", r.Holdout.ErrorRate)

	sb.WriteString("confusion matrix (rows true, columns predicted):\n")
	for _, row := range r.Holdout.ConfusionMatrix {
		sb.WriteString(" ")
		for _, cell := range row {
			fmt.Fprintf(sb, " %5d", cell)
		}
		sb.WriteString("\n")
	}
	if len(r.Holdout.PerClassRecall) > 0 {
		sb.WriteString("per-class recall:")
		for _, v := range r.Holdout.PerClassRecall {
			fmt.Fprintf(sb, " %.4f", v)
		}
		sb.WriteString("\n")
	}

	top := r.TopFeatures
	if top <= 0 || top > len(r.Holdout.Importance) {
		top = len(r.Holdout.Importance)
	}
	fmt.Fprintf(sb, "top %d features by gain:\n", top)
	for i := 0; i < top; i++ {
		rank := r.Holdout.Importance[i]
		fmt.Fprintf(sb, "  %2d. %-30s %.4f\n", i+1, rank.Name, rank.Importance)
	}
	sb.WriteString("\n")
}

func (r *Report) renderPredictions(sb *strings.Builder) {
	sb.WriteString("== Predictions ==\n")
	for _, p := range r.Predictions {
		fmt.Fprintf(sb, "  %s: %s\n", p.ID, p.Class)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
