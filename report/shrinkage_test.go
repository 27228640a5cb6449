package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/catenc/core/frame"
	"github.com/YuminosukeSato/catenc/pkg/errors"
	"github.com/YuminosukeSato/catenc/preprocessing"
)

func fittedEncoder(t *testing.T) *preprocessing.TargetEncoder {
	t.Helper()
	X := frame.MustNew(frame.NewCategorical("city",
		[]string{"tokyo", "tokyo", "tokyo", "osaka", "osaka", "kyoto"}, nil))
	y := mat.NewVecDense(6, []float64{1, 1, 0, 0, 0, 1})

	enc := preprocessing.NewTargetEncoder()
	require.NoError(t, enc.Fit(X, y))
	return enc
}

type emptySource struct{}

func (emptySource) ColumnStatistics(string) ([]preprocessing.CategorySummary, error) {
	return nil, nil
}

func (emptySource) Prior() (float64, error) { return 0.5, nil }

func TestShrinkagePlot(t *testing.T) {
	p, err := ShrinkagePlot(fittedEncoder(t), "city")
	require.NoError(t, err)
	assert.Equal(t, "Target encoding shrinkage: city", p.Title.Text)
	assert.Equal(t, 0.0, p.X.Min)
	assert.Equal(t, 4.0, p.X.Max)
}

func TestShrinkagePlotErrors(t *testing.T) {
	_, err := ShrinkagePlot(fittedEncoder(t), "country")
	assert.Error(t, err)

	_, err = ShrinkagePlot(preprocessing.NewTargetEncoder(), "city")
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	_, err = ShrinkagePlot(emptySource{}, "city")
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestSaveShrinkagePlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "city.png")
	require.NoError(t, SaveShrinkagePlot(fittedEncoder(t), "city", path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestWriteShrinkagePlot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteShrinkagePlot(&buf, fittedEncoder(t), "city", ".svg"))
	assert.Contains(t, buf.String(), "<svg")

	err := WriteShrinkagePlot(&buf, fittedEncoder(t), "city", "bmp3")
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, "png", FormatFromPath("out/City.PNG"))
	assert.Equal(t, "svg", FormatFromPath("plot.svg"))
	assert.Equal(t, "", FormatFromPath("plot"))
}
