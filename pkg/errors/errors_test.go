package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedErrors(t *testing.T) {
	t.Run("SchemaError carries column and operation", func(t *testing.T) {
		err := NewSchemaError("Cleaner.Align", "roll_belt", "missing from unlabeled table")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "roll_belt")
		assert.Contains(t, err.Error(), "Cleaner.Align")

		var schemaErr *SchemaError
		require.True(t, As(err, &schemaErr))
		assert.Equal(t, "roll_belt", schemaErr.Column)
	})

	t.Run("DataError wraps the underlying cause", func(t *testing.T) {
		cause := New("connection refused")
		err := NewDataError("https://example.com/train.csv", "download failed", cause)
		require.Error(t, err)
		assert.True(t, Is(err, cause))

		var dataErr *DataError
		require.True(t, As(err, &dataErr))
		assert.Equal(t, "download failed", dataErr.Reason)
	})

	t.Run("DimensionError names the axis", func(t *testing.T) {
		err := NewDimensionError("Predict", 152, 150, 1)
		assert.Contains(t, err.Error(), "features")

		err = NewDimensionError("Fit", 100, 99, 0)
		assert.Contains(t, err.Error(), "rows")
	})

	t.Run("NotFittedError", func(t *testing.T) {
		err := NewNotFittedError("Model", "Predict")
		assert.Contains(t, err.Error(), "not fitted")
	})

	t.Run("Wrap preserves the chain", func(t *testing.T) {
		base := NewValueError("Search", "trial count must be positive")
		wrapped := Wrap(base, "hyperparameter search failed")
		var valueErr *ValueError
		assert.True(t, As(wrapped, &valueErr))
	})
}

func TestRecover(t *testing.T) {
	t.Run("converts panic into error", func(t *testing.T) {
		fn := func() (err error) {
			defer Recover(&err, "test.fn")
			panic("boom")
		}
		err := fn()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panic in test.fn")

		var panicErr *PanicError
		require.True(t, As(err, &panicErr))
		assert.NotEmpty(t, panicErr.StackTrace)
	})

	t.Run("no panic leaves error untouched", func(t *testing.T) {
		fn := func() (err error) {
			defer Recover(&err, "test.fn")
			return nil
		}
		assert.NoError(t, fn())
	})
}
