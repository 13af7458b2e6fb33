package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	t.Run("parses header and rows", func(t *testing.T) {
		raw := "a,b,c\n1,2,3\n4,5,6\n"
		table, err := ReadCSV(strings.NewReader(raw), "mini")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, table.Columns)
		assert.Equal(t, 2, table.NumRows())
		assert.Equal(t, 3, table.NumCols())
	})

	t.Run("normalizes missing tokens", func(t *testing.T) {
		raw := "a,b,c\n1,NA,3\n4,,#DIV/0!\n"
		table, err := ReadCSV(strings.NewReader(raw), "mini")
		require.NoError(t, err)
		assert.Equal(t, "", table.Cells[0][1])
		assert.Equal(t, "", table.Cells[1][1])
		assert.Equal(t, "", table.Cells[1][2])
		assert.Equal(t, "1", table.Cells[0][0])
	})

	t.Run("empty table is a data error", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("a,b\n"), "empty")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no data rows")
	})

	t.Run("missing header is a data error", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(""), "none")
		require.Error(t, err)
	})
}

func TestFeatureMatrix(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("id,x,y,label\n1,0.5,NA,A\n2,1.5,2.0,B\n"), "mini")
	require.NoError(t, err)

	t.Run("excluded columns are dropped", func(t *testing.T) {
		X, names, err := table.FeatureMatrix("id", "label")
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, names)
		r, c := X.Dims()
		assert.Equal(t, 2, r)
		assert.Equal(t, 2, c)
	})

	t.Run("missing cells become NaN", func(t *testing.T) {
		X, _, err := table.FeatureMatrix("id", "label")
		require.NoError(t, err)
		assert.True(t, math.IsNaN(X.At(0, 1)))
		assert.Equal(t, 0.5, X.At(0, 0))
	})

	t.Run("non-numeric cell is a data error", func(t *testing.T) {
		_, _, err := table.FeatureMatrix("id")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-numeric")
	})
}
