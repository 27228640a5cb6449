package report

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/catenc/core/frame"
	"github.com/YuminosukeSato/catenc/pkg/errors"
	"github.com/YuminosukeSato/catenc/preprocessing"
)

// noiseData has a high-cardinality column unrelated to the target.
func noiseData() (*frame.Frame, *mat.VecDense) {
	rng := rand.New(rand.NewPCG(4, 2))
	n := 400
	ids := make([]string, n)
	ys := make([]float64, n)
	for i := range ids {
		ids[i] = string(rune('a' + rng.IntN(26)))
		ids[i] += string(rune('a' + rng.IntN(4)))
		ys[i] = float64(rng.IntN(2))
	}
	return frame.MustNew(frame.NewCategorical("id", ids, nil)), mat.NewVecDense(n, ys)
}

func TestEncodingScoresShowLeakage(t *testing.T) {
	X, y := noiseData()

	inSample := preprocessing.NewTargetEncoder(preprocessing.WithMinSamplesLeaf(1), preprocessing.WithSmoothing(1))
	require.NoError(t, inSample.Fit(X, y))
	leaky, err := inSample.TransformFrame(X, y)
	require.NoError(t, err)

	oof := preprocessing.NewTargetEncoder(preprocessing.WithFoldCount(5), preprocessing.WithRandomState(9))
	require.NoError(t, oof.Fit(X, y))
	honest, err := oof.TransformFrame(X, y)
	require.NoError(t, err)

	leakyScores, err := EncodingScores(leaky, y, []string{"id"})
	require.NoError(t, err)
	honestScores, err := EncodingScores(honest, y, []string{"id"})
	require.NoError(t, err)

	require.Len(t, leakyScores, 1)
	assert.Equal(t, "id", leakyScores[0].Column)
	assert.Greater(t, leakyScores[0].R2, honestScores[0].R2)
	assert.Less(t, leakyScores[0].MSE, honestScores[0].MSE)
}

func TestEncodingScoresErrors(t *testing.T) {
	X, y := noiseData()

	_, err := EncodingScores(X, mat.NewVecDense(3, nil), []string{"id"})
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = EncodingScores(X, y, []string{"city"})
	assert.Error(t, err)

	_, err = EncodingScores(X, y, []string{"id"})
	assert.True(t, errors.Is(err, errors.ErrColumnKind))
}
