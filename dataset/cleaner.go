package dataset

import (
	"github.com/liftlab/harlift/pkg/errors"
	"github.com/liftlab/harlift/pkg/log"
)

// Cleaner drops sparse and non-predictive columns.
//
// A column survives iff its missing fraction is strictly less than
// Threshold. The first MetaPrefix columns of the filtered table (row id,
// user, timestamps, window metadata) are then dropped. Cleaning is
// idempotent: the surviving columns have missing fractions below the
// threshold and carry no metadata prefix, so a second pass is a no-op
// as long as the prefix has already been removed.
type Cleaner struct {
	Threshold  float64 // missing-fraction cutoff, exclusive
	MetaPrefix int     // number of leading metadata columns to drop after filtering
}

// NewCleaner creates a Cleaner with the report defaults.
func NewCleaner() *Cleaner {
	return &Cleaner{Threshold: 0.05, MetaPrefix: 7}
}

// Clean applies the missingness filter and the metadata prefix drop.
func (c *Cleaner) Clean(t *Table) (*Table, error) {
	if t.NumRows() == 0 || t.NumCols() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Cleaner.Clean")
	}

	retained := make([]int, 0, t.NumCols())
	for j := 0; j < t.NumCols(); j++ {
		if t.MissingFraction(j) < c.Threshold {
			retained = append(retained, j)
		}
	}
	if len(retained) <= c.MetaPrefix {
		return nil, errors.NewSchemaError("Cleaner.Clean", "",
			"no feature columns left after cleaning")
	}
	filtered := t.SelectColumns(retained)

	prefix := c.MetaPrefix
	if prefix > 0 {
		indices := make([]int, 0, filtered.NumCols()-prefix)
		for j := prefix; j < filtered.NumCols(); j++ {
			indices = append(indices, j)
		}
		filtered = filtered.SelectColumns(indices)
	}

	log.GetLoggerWithName("dataset.cleaner").Info("cleaned table",
		"table", t.Name,
		log.FeaturesKey, filtered.NumCols(),
		"dropped", t.NumCols()-filtered.NumCols())
	return filtered, nil
}

// AlignFeatures verifies that two independently cleaned tables expose the
// same feature-column set and reorders the second table's columns to match
// the first. Columns named in exclude (label and row-identifier columns)
// are ignored during the comparison and kept at the end of the reordered
// table. A mismatch is a schema error: the two tables' missingness
// patterns diverged and positional alignment cannot be trusted.
func AlignFeatures(train, test *Table, exclude ...string) (*Table, error) {
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}

	trainFeatures := make([]string, 0, train.NumCols())
	for _, name := range train.Columns {
		if !skip[name] {
			trainFeatures = append(trainFeatures, name)
		}
	}

	testSet := make(map[string]bool, test.NumCols())
	for _, name := range test.Columns {
		if !skip[name] {
			testSet[name] = true
		}
	}

	ordered := make([]int, 0, test.NumCols())
	for _, name := range trainFeatures {
		j := test.ColumnIndex(name)
		if j < 0 {
			return nil, errors.NewSchemaError("AlignFeatures", name,
				"feature present in labeled table but missing from unlabeled table")
		}
		ordered = append(ordered, j)
		delete(testSet, name)
	}
	for name := range testSet {
		return nil, errors.NewSchemaError("AlignFeatures", name,
			"feature present in unlabeled table but missing from labeled table")
	}

	// Keep excluded columns (row identifiers) after the aligned features.
	for j, name := range test.Columns {
		if skip[name] {
			ordered = append(ordered, j)
		}
	}
	return test.SelectColumns(ordered), nil
}
