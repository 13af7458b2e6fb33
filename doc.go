// Package harlift predicts how well a weight lifting exercise was
// performed from on-body sensor readings.
//
// The pipeline loads the labeled and unlabeled sensor tables, drops
// sparse and metadata columns, splits the labeled rows into fit and
// hold-out sets, tunes a gradient boosted tree classifier by randomized
// search with stratified cross-validation, evaluates the winner on the
// hold-out rows and predicts the activity class of the unlabeled rows.
//
// # Packages
//
//   - dataset: CSV loading, cleaning, splitting and label encoding
//   - boosting: the multiclass gradient boosted tree learner
//   - search: randomized hyperparameter search
//   - metrics: classification quality measures
//   - evaluation: hold-out scoring and feature importance ranking
//   - report: text report and chart rendering
//   - cmd/harreport: the pipeline binary
//
// # Quick start
//
// Run the full pipeline with the published defaults:
//
//	go run ./cmd/harreport -out-dir out
//
// The report, the feature importance chart and the cross-validated error
// curve land in the output directory.
package harlift
