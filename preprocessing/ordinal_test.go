package preprocessing

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/catenc/core/frame"
	"github.com/YuminosukeSato/catenc/pkg/errors"
)

func ordinalFrame() *frame.Frame {
	return frame.MustNew(
		frame.NewCategorical("color", []string{"red", "", "blue", "red"}, []bool{false, true, false, false}),
		frame.NewCategorical("size", []string{"S", "M", "S", "L"}, nil),
		frame.NewNumeric("price", []float64{1, 2, 3, 4}),
	)
}

func codesOf(t *testing.T, f *frame.Frame, name string) []float64 {
	t.Helper()
	col, ok := f.Column(name)
	require.True(t, ok)
	require.Equal(t, frame.Numeric, col.Kind)
	return col.Floats
}

func TestOrdinalEncoderFirstAppearanceOrder(t *testing.T) {
	enc := NewOrdinalEncoder(nil, PolicyValue, PolicyValue)
	out, err := enc.FitTransform(ordinalFrame())
	require.NoError(t, err)

	assert.Equal(t, []string{"color", "size"}, enc.Columns())
	assert.Equal(t, []float64{1, 2, 3, 1}, codesOf(t, out, "color"))
	assert.Equal(t, []float64{1, 2, 1, 3}, codesOf(t, out, "size"))
	assert.Equal(t, []float64{1, 2, 3, 4}, codesOf(t, out, "price"))

	color, ok := enc.CategoryMapping("color")
	require.True(t, ok)
	assert.Equal(t, 2, color.MissingCode, "null seen at fit gets its own code")
	assert.Equal(t, 3, color.Len())

	size, ok := enc.CategoryMapping("size")
	require.True(t, ok)
	assert.Equal(t, MissingCodeUnseen, size.MissingCode)

	_, ok = enc.CategoryMapping("price")
	assert.False(t, ok)
}

func TestOrdinalEncoderUnknownAndMissing(t *testing.T) {
	train := ordinalFrame()
	test := frame.MustNew(
		frame.NewCategorical("color", []string{"green", "blue"}, nil),
		frame.NewCategorical("size", []string{"S", ""}, []bool{false, true}),
		frame.NewNumeric("price", []float64{1, 2}),
	)

	t.Run("value", func(t *testing.T) {
		enc := NewOrdinalEncoder(nil, PolicyValue, PolicyValue)
		require.NoError(t, enc.Fit(train))
		out, err := enc.Transform(test)
		require.NoError(t, err)
		assert.Equal(t, []float64{UnknownCode, 3}, codesOf(t, out, "color"))
		assert.Equal(t, []float64{1, MissingCodeUnseen}, codesOf(t, out, "size"))
	})

	t.Run("return_nan", func(t *testing.T) {
		enc := NewOrdinalEncoder(nil, PolicyReturnNaN, PolicyReturnNaN)
		require.NoError(t, enc.Fit(train))
		out, err := enc.Transform(test)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(codesOf(t, out, "color")[0]))
		assert.True(t, math.IsNaN(codesOf(t, out, "size")[1]))

		color, _ := enc.CategoryMapping("color")
		assert.Equal(t, MissingCodeUnseen, color.MissingCode, "return_nan assigns no code to nulls")
	})

	t.Run("error", func(t *testing.T) {
		enc := NewOrdinalEncoder([]string{"size"}, PolicyError, PolicyValue)
		require.NoError(t, enc.Fit(train))
		_, err := enc.Transform(test)
		assert.NoError(t, err, "null handling is independent of unknown handling")

		enc = NewOrdinalEncoder([]string{"color"}, PolicyError, PolicyValue)
		require.NoError(t, enc.Fit(train))
		_, err = enc.Transform(test)
		var unkErr *errors.UnknownCategoryError
		require.True(t, errors.As(err, &unkErr))
		assert.Equal(t, "color", unkErr.Column)
		assert.Equal(t, []int{0}, unkErr.Rows)
	})

	t.Run("missing error", func(t *testing.T) {
		enc := NewOrdinalEncoder(nil, PolicyValue, PolicyError)
		err := enc.Fit(train)
		var missErr *errors.MissingValueError
		require.True(t, errors.As(err, &missErr))
		assert.Equal(t, "fit", missErr.Phase)
		assert.Equal(t, "color", missErr.Column)
	})
}

func TestOrdinalEncoderValidation(t *testing.T) {
	t.Run("not fitted", func(t *testing.T) {
		_, err := NewOrdinalEncoder(nil, PolicyValue, PolicyValue).Transform(ordinalFrame())
		var notFitted *errors.NotFittedError
		assert.True(t, errors.As(err, &notFitted))
	})

	t.Run("bad policy", func(t *testing.T) {
		err := NewOrdinalEncoder(nil, Policy("ignore"), PolicyValue).Fit(ordinalFrame())
		var valErr *errors.ValidationError
		assert.True(t, errors.As(err, &valErr))
	})

	t.Run("numeric column requested", func(t *testing.T) {
		err := NewOrdinalEncoder([]string{"price"}, PolicyValue, PolicyValue).Fit(ordinalFrame())
		assert.True(t, errors.Is(err, errors.ErrColumnKind))
	})

	t.Run("unknown column requested", func(t *testing.T) {
		err := NewOrdinalEncoder([]string{"shape"}, PolicyValue, PolicyValue).Fit(ordinalFrame())
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		err := NewOrdinalEncoder(nil, PolicyValue, PolicyValue).Fit(frame.MustNew())
		assert.True(t, errors.Is(err, errors.ErrEmptyData))
	})

	t.Run("column count", func(t *testing.T) {
		enc := NewOrdinalEncoder(nil, PolicyValue, PolicyValue)
		require.NoError(t, enc.Fit(ordinalFrame()))
		in := ordinalFrame()
		_, err := enc.Transform(in.Drop("price"))
		var shapeErr *errors.InputShapeError
		require.True(t, errors.As(err, &shapeErr))
		assert.Equal(t, "transform", shapeErr.Phase)
		assert.Equal(t, []int{in.NRows(), in.NCols()}, shapeErr.Expected)
		assert.Equal(t, []int{in.NRows(), in.NCols() - 1}, shapeErr.Got)
		assert.Empty(t, shapeErr.Feature)
	})

	t.Run("renamed column", func(t *testing.T) {
		enc := NewOrdinalEncoder(nil, PolicyValue, PolicyValue)
		require.NoError(t, enc.Fit(ordinalFrame()))
		in := ordinalFrame()
		color, _ := in.Column("color")
		size, _ := in.Column("size")
		price, _ := in.Column("price")
		renamed := frame.MustNew(color, size, frame.NewNumeric("cost", price.Floats))

		_, err := enc.Transform(renamed)
		var shapeErr *errors.InputShapeError
		require.True(t, errors.As(err, &shapeErr))
		assert.Equal(t, "price", shapeErr.Feature)
	})

	t.Run("already coded", func(t *testing.T) {
		enc := NewOrdinalEncoder(nil, PolicyValue, PolicyValue)
		out, err := enc.FitTransform(ordinalFrame())
		require.NoError(t, err)
		_, err = enc.Transform(out)
		assert.True(t, errors.Is(err, errors.ErrColumnKind))
	})
}

func TestOrdinalEncoderSaveLoad(t *testing.T) {
	enc := NewOrdinalEncoder(nil, PolicyValue, PolicyValue)
	want, err := enc.FitTransform(ordinalFrame())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, enc.Save(&buf))

	loaded := NewOrdinalEncoder(nil, PolicyError, PolicyError)
	require.NoError(t, loaded.Load(&buf))
	assert.True(t, loaded.IsFitted())
	assert.Equal(t, "value", loaded.GetParams()["handle_unknown"])

	got, err := loaded.Transform(ordinalFrame())
	require.NoError(t, err)
	assert.True(t, frame.Equal(want, got))

	assert.Error(t, NewOrdinalEncoder(nil, PolicyValue, PolicyValue).Save(&buf))
}
