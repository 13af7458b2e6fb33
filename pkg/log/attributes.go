package log

// Standard attribute keys used across the pipeline. Keeping these in one
// place keeps the log stream filterable by stage and metric.
const (
	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "component"

	// StageKey indicates the pipeline stage ("load", "clean", "split",
	// "search", "train", "evaluate", "predict", "report").
	StageKey = "pipeline.stage"

	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns being processed.
	FeaturesKey = "data.features"

	// TrialKey is the hyperparameter search trial number.
	TrialKey = "search.trial"

	// SeedKey is the random seed in effect for an operation.
	SeedKey = "search.seed"

	// RoundKey is the boosting round index.
	RoundKey = "training.round"

	// CVErrorKey is the cross-validated multiclass error rate.
	CVErrorKey = "metrics.cv_error"

	// AccuracyKey is hold-out classification accuracy.
	AccuracyKey = "metrics.accuracy"

	// DurationMsKey records execution time in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
