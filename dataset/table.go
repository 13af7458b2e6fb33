// Package dataset provides loading, cleaning and partitioning of the
// sensor activity tables.
//
// A Table keeps the parsed CSV content in raw string form so that the
// Cleaner can reason about missing values before any numeric conversion.
// Missing-value tokens ("", "NA", "#DIV/0!") are normalized to the empty
// string at parse time. The missing cells that survive cleaning become NaN
// in the feature matrix; the boosting model routes NaN through the default
// split direction.
package dataset

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/liftlab/harlift/pkg/errors"
)

// Table is a parsed CSV table with a header row. Cells are stored row-major
// with missing values normalized to "".
type Table struct {
	Name    string
	Columns []string
	Cells   [][]string
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.Cells)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.Columns)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// MissingFraction returns the fraction of missing cells in column j.
func (t *Table) MissingFraction(j int) float64 {
	if len(t.Cells) == 0 {
		return 0
	}
	missing := 0
	for _, row := range t.Cells {
		if row[j] == "" {
			missing++
		}
	}
	return float64(missing) / float64(len(t.Cells))
}

// SelectColumns returns a new table containing only the columns at the
// given positions, in the given order. Cell data is copied.
func (t *Table) SelectColumns(indices []int) *Table {
	cols := make([]string, len(indices))
	for i, j := range indices {
		cols[i] = t.Columns[j]
	}
	cells := make([][]string, len(t.Cells))
	for r, row := range t.Cells {
		newRow := make([]string, len(indices))
		for i, j := range indices {
			newRow[i] = row[j]
		}
		cells[r] = newRow
	}
	return &Table{Name: t.Name, Columns: cols, Cells: cells}
}

// DropColumn returns a new table without the named column. The table is
// returned unchanged if the column does not exist.
func (t *Table) DropColumn(name string) *Table {
	j := t.ColumnIndex(name)
	if j < 0 {
		return t
	}
	indices := make([]int, 0, len(t.Columns)-1)
	for i := range t.Columns {
		if i != j {
			indices = append(indices, i)
		}
	}
	return t.SelectColumns(indices)
}

// Column returns the raw cell values of the named column.
func (t *Table) Column(name string) ([]string, error) {
	j := t.ColumnIndex(name)
	if j < 0 {
		return nil, errors.NewSchemaError("Table.Column", name, "column not found")
	}
	values := make([]string, len(t.Cells))
	for i, row := range t.Cells {
		values[i] = row[j]
	}
	return values, nil
}

// SelectRows returns a new table containing only the rows at the given
// positions, in the given order.
func (t *Table) SelectRows(indices []int) *Table {
	cells := make([][]string, len(indices))
	for i, r := range indices {
		row := make([]string, len(t.Cells[r]))
		copy(row, t.Cells[r])
		cells[i] = row
	}
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	return &Table{Name: t.Name, Columns: cols, Cells: cells}
}

// FeatureMatrix converts all columns except the excluded ones into a dense
// numeric matrix. Missing cells become NaN; a non-numeric cell is a data
// error. The returned column names are in matrix column order.
func (t *Table) FeatureMatrix(exclude ...string) (*mat.Dense, []string, error) {
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}

	featureIdx := make([]int, 0, len(t.Columns))
	featureNames := make([]string, 0, len(t.Columns))
	for j, name := range t.Columns {
		if !skip[name] {
			featureIdx = append(featureIdx, j)
			featureNames = append(featureNames, name)
		}
	}
	if len(featureIdx) == 0 || len(t.Cells) == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "Table.FeatureMatrix")
	}

	X := mat.NewDense(len(t.Cells), len(featureIdx), nil)
	for i, row := range t.Cells {
		for k, j := range featureIdx {
			cell := row[j]
			if cell == "" {
				X.Set(i, k, math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, errors.NewDataError(t.Name,
					"non-numeric cell in column "+t.Columns[j], err)
			}
			X.Set(i, k, v)
		}
	}
	return X, featureNames, nil
}
