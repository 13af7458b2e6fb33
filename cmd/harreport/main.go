// Command harreport runs the full weight lifting activity pipeline: it
// downloads the labeled and unlabeled sensor tables, cleans them, tunes a
// boosted tree classifier by randomized search with cross-validation,
// evaluates the winner on a hold-out split and writes the report.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/liftlab/harlift/boosting"
	"github.com/liftlab/harlift/dataset"
	"github.com/liftlab/harlift/evaluation"
	"github.com/liftlab/harlift/pkg/errors"
	"github.com/liftlab/harlift/pkg/log"
	"github.com/liftlab/harlift/report"
	"github.com/liftlab/harlift/search"
)

// Config collects every knob of the pipeline.
type Config struct {
	TrainURL string
	TestURL  string
	DataDir  string
	OutDir   string

	LabelColumn string
	IDColumn    string

	SparseThreshold float64
	MetaPrefix      int
	FitFraction     float64

	Trials        int
	Folds         int
	MaxRounds     int
	EarlyStopping int
	Threads       int
	Seed          int64

	LogLevel string
}

// DefaultConfig returns the configuration of the published analysis.
func DefaultConfig() Config {
	return Config{
		TrainURL:        "https://d396qusza40orc.cloudfront.net/predmachlearn/pml-training.csv",
		TestURL:         "https://d396qusza40orc.cloudfront.net/predmachlearn/pml-testing.csv",
		DataDir:         "data",
		OutDir:          "out",
		LabelColumn:     "classe",
		IDColumn:        "problem_id",
		SparseThreshold: 0.05,
		MetaPrefix:      7,
		FitFraction:     0.7,
		Trials:          10,
		Folds:           5,
		MaxRounds:       200,
		EarlyStopping:   8,
		Threads:         3,
		Seed:            1,
		LogLevel:        "info",
	}
}

func main() {
	cfg := DefaultConfig()
	flag.StringVar(&cfg.TrainURL, "train-url", cfg.TrainURL, "URL of the labeled sensor table")
	flag.StringVar(&cfg.TestURL, "test-url", cfg.TestURL, "URL of the unlabeled sensor table")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for downloaded tables")
	flag.StringVar(&cfg.OutDir, "out-dir", cfg.OutDir, "directory for the report and charts")
	flag.Float64Var(&cfg.SparseThreshold, "sparse-threshold", cfg.SparseThreshold, "maximum missing fraction a column may have")
	flag.Float64Var(&cfg.FitFraction, "fit-fraction", cfg.FitFraction, "fraction of labeled rows used for fitting")
	flag.IntVar(&cfg.Trials, "trials", cfg.Trials, "number of hyperparameter search trials")
	flag.IntVar(&cfg.Folds, "folds", cfg.Folds, "number of cross-validation folds")
	flag.IntVar(&cfg.MaxRounds, "max-rounds", cfg.MaxRounds, "maximum boosting rounds per trial")
	flag.IntVar(&cfg.EarlyStopping, "early-stopping", cfg.EarlyStopping, "rounds without improvement before stopping")
	flag.IntVar(&cfg.Threads, "threads", cfg.Threads, "worker threads per training round")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "seed for splitting, sampling and training")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flag.Parse()

	log.SetupLogger(cfg.LogLevel)
	logger := log.GetLoggerWithName("harreport")

	if err := run(cfg, logger); err != nil {
		logger.Error("pipeline failed", log.ErrAttr(err))
		os.Exit(1)
	}
}

func run(cfg Config, logger log.Logger) error {
	start := time.Now()

	labeled, unlabeled, err := loadTables(cfg, logger)
	if err != nil {
		return err
	}

	cleaner := &dataset.Cleaner{Threshold: cfg.SparseThreshold, MetaPrefix: cfg.MetaPrefix}
	cleanLabeled, err := cleaner.Clean(labeled)
	if err != nil {
		return errors.Wrap(err, "cleaning labeled table")
	}
	cleanUnlabeled, err := cleaner.Clean(unlabeled)
	if err != nil {
		return errors.Wrap(err, "cleaning unlabeled table")
	}
	cleanUnlabeled, err = dataset.AlignFeatures(cleanLabeled, cleanUnlabeled, cfg.LabelColumn, cfg.IDColumn)
	if err != nil {
		return errors.Wrap(err, "aligning unlabeled features")
	}
	logger.Info("tables cleaned",
		log.StageKey, "clean",
		log.SamplesKey, cleanLabeled.NumRows(),
		log.FeaturesKey, cleanLabeled.NumCols()-1)

	labels, err := cleanLabeled.Column(cfg.LabelColumn)
	if err != nil {
		return errors.Wrap(err, "reading labels")
	}
	splitter := &dataset.Splitter{Fraction: cfg.FitFraction, Seed: uint64(cfg.Seed)}
	fitIdx, holdoutIdx, err := splitter.Split(labels)
	if err != nil {
		return errors.Wrap(err, "splitting labeled rows")
	}
	fitTable := cleanLabeled.SelectRows(fitIdx)
	holdoutTable := cleanLabeled.SelectRows(holdoutIdx)
	logger.Info("rows split",
		log.StageKey, "split",
		"fit_rows", len(fitIdx),
		"holdout_rows", len(holdoutIdx))

	codec := dataset.NewLabelCodec()
	fitX, featureNames, err := fitTable.FeatureMatrix(cfg.LabelColumn)
	if err != nil {
		return errors.Wrap(err, "building fit matrix")
	}
	fitLabels, err := fitTable.Column(cfg.LabelColumn)
	if err != nil {
		return err
	}
	fitY, err := codec.EncodeVector(fitLabels)
	if err != nil {
		return errors.Wrap(err, "encoding fit labels")
	}
	fitClasses := columnToInts(fitY)

	base := boosting.NewTrainingParams()
	base.NumClass = codec.NumClasses()
	base.NumRounds = cfg.MaxRounds
	base.EarlyStopping = cfg.EarlyStopping
	base.NumThreads = cfg.Threads

	searcher := search.NewSearcher(search.DefaultSpace(),
		search.WithTrials(cfg.Trials),
		search.WithFolds(cfg.Folds),
		search.WithSeed(uint64(cfg.Seed)))
	trials, bestIdx, err := searcher.Run(base, fitX, fitClasses)
	if err != nil {
		return errors.Wrap(err, "hyperparameter search")
	}
	winner := trials[bestIdx]
	logger.Info("search finished",
		log.StageKey, "search",
		log.TrialKey, winner.Trial,
		log.CVErrorKey, winner.CVError)

	// Refit the winning configuration on all fit rows, capped at the
	// round cross-validation found best.
	finalParams := winner.Params
	finalParams.NumRounds = winner.BestRound + 1
	finalParams.EarlyStopping = 0
	trainer := boosting.NewTrainer(finalParams)
	if err := trainer.Fit(fitX, fitY); err != nil {
		return errors.Wrap(err, "refitting winner")
	}
	model := trainer.GetModel()
	model.FeatureNames = featureNames

	holdoutX, _, err := holdoutTable.FeatureMatrix(cfg.LabelColumn)
	if err != nil {
		return errors.Wrap(err, "building hold-out matrix")
	}
	holdoutLabels, err := holdoutTable.Column(cfg.LabelColumn)
	if err != nil {
		return err
	}
	holdoutY, err := codec.EncodeVector(holdoutLabels)
	if err != nil {
		return errors.Wrap(err, "encoding hold-out labels")
	}
	result, err := evaluation.Evaluate(model, holdoutX, columnToInts(holdoutY))
	if err != nil {
		return errors.Wrap(err, "hold-out evaluation")
	}
	logger.Info("hold-out evaluated",
		log.StageKey, "evaluate",
		log.AccuracyKey, result.Accuracy)

	predictions, err := predictUnlabeled(model, codec, cleanUnlabeled, cfg.IDColumn, cfg.LabelColumn)
	if err != nil {
		return err
	}

	if err := writeOutputs(cfg, labeled, unlabeled, cleanLabeled, cleanUnlabeled, fitIdx, holdoutIdx,
		fitLabels, trials, bestIdx, finalParams, model, result, predictions); err != nil {
		return err
	}

	logger.Info("pipeline finished",
		log.StageKey, "report",
		log.DurationMsKey, time.Since(start).Milliseconds())
	return nil
}

// loadTables downloads both tables when missing and parses them.
func loadTables(cfg Config, logger log.Logger) (labeled, unlabeled *dataset.Table, err error) {
	trainPath := filepath.Join(cfg.DataDir, "pml-training.csv")
	testPath := filepath.Join(cfg.DataDir, "pml-testing.csv")

	if err := dataset.EnsureLocal(cfg.TrainURL, trainPath); err != nil {
		return nil, nil, errors.Wrap(err, "fetching labeled table")
	}
	if err := dataset.EnsureLocal(cfg.TestURL, testPath); err != nil {
		return nil, nil, errors.Wrap(err, "fetching unlabeled table")
	}

	labeled, err = dataset.LoadTable(trainPath)
	if err != nil {
		return nil, nil, err
	}
	unlabeled, err = dataset.LoadTable(testPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("tables loaded",
		log.StageKey, "load",
		"labeled_rows", labeled.NumRows(),
		"unlabeled_rows", unlabeled.NumRows())
	return labeled, unlabeled, nil
}

// predictUnlabeled scores the unlabeled rows and maps the predicted
// classes back to letters, keyed by the row identifier column.
func predictUnlabeled(model *boosting.Model, codec *dataset.LabelCodec, table *dataset.Table, idColumn, labelColumn string) ([]report.Prediction, error) {
	X, _, err := table.FeatureMatrix(labelColumn, idColumn)
	if err != nil {
		return nil, errors.Wrap(err, "building unlabeled matrix")
	}
	classes, err := model.PredictClass(X)
	if err != nil {
		return nil, errors.Wrap(err, "predicting unlabeled rows")
	}
	letters, err := codec.DecodeClasses(classes)
	if err != nil {
		return nil, err
	}
	ids, err := table.Column(idColumn)
	if err != nil {
		return nil, err
	}

	predictions := make([]report.Prediction, len(letters))
	for i := range letters {
		predictions[i] = report.Prediction{ID: ids[i], Class: letters[i]}
	}
	return predictions, nil
}

// writeOutputs assembles the report and saves it with the charts.
func writeOutputs(cfg Config, labeled, unlabeled, cleanLabeled, cleanUnlabeled *dataset.Table,
	fitIdx, holdoutIdx []int, fitLabels []string,
	trials []search.TrialResult, bestIdx int, finalParams boosting.TrainingParams,
	model *boosting.Model, result *evaluation.Result, predictions []report.Prediction) error {

	classCounts := make(map[string]int)
	for _, label := range fitLabels {
		classCounts[label]++
	}

	var trees []string
	for i := 0; i < 2 && i < len(model.Trees); i++ {
		rendered, err := model.RenderTree(i)
		if err != nil {
			return errors.Wrapf(err, "rendering tree %d", i)
		}
		trees = append(trees, rendered)
	}

	rep := &report.Report{
		Tables: []report.DataSummary{
			summarize("pml-training", labeled, cleanLabeled),
			summarize("pml-testing", unlabeled, cleanUnlabeled),
		},
		Split: report.SplitSummary{
			FitRows:     len(fitIdx),
			HoldoutRows: len(holdoutIdx),
			Fraction:    cfg.FitFraction,
			ClassCounts: classCounts,
		},
		Trials:      trials,
		BestTrial:   bestIdx,
		FinalParams: finalParams,
		Holdout:     result,
		Trees:       trees,
		Predictions: predictions,
		TopFeatures: 10,
	}
	text, err := rep.Render()
	if err != nil {
		return errors.Wrap(err, "rendering report")
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	reportPath := filepath.Join(cfg.OutDir, "report.txt")
	if err := os.WriteFile(reportPath, []byte(text), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", reportPath)
	}
	chartPath := filepath.Join(cfg.OutDir, "importance.png")
	if err := report.SaveImportanceChart(result.Importance, rep.TopFeatures, chartPath); err != nil {
		return err
	}
	if history := trials[bestIdx].History; len(history) > 0 {
		curvePath := filepath.Join(cfg.OutDir, "cv_error.png")
		if err := report.SaveErrorCurve(history, curvePath); err != nil {
			return err
		}
	}
	fmt.Println(text)
	return nil
}

func summarize(name string, raw, clean *dataset.Table) report.DataSummary {
	return report.DataSummary{
		Name:        name,
		RawRows:     raw.NumRows(),
		RawCols:     raw.NumCols(),
		CleanCols:   clean.NumCols(),
		DroppedCols: raw.NumCols() - clean.NumCols(),
	}
}

// columnToInts reads a single-column matrix of class codes into ints.
func columnToInts(y *mat.Dense) []int {
	rows, _ := y.Dims()
	out := make([]int, rows)
	for i := 0; i < rows; i++ {
		out[i] = int(y.At(i, 0))
	}
	return out
}
