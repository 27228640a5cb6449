package preprocessing

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestBlendWeights(t *testing.T) {
	// count == minSamplesLeaf gives w = 0.5
	got := blend([]float64{1}, []float64{1}, 0, 1, 1)
	assert.InDelta(t, 0.5, got[0], 1e-12)

	// large counts trust the category mean
	got = blend([]float64{0.9}, []float64{1000}, 0.1, 1, 1)
	assert.InDelta(t, 0.9, got[0], 1e-9)
}

func TestOverwriteSparseIsSeparateStep(t *testing.T) {
	mean := []float64{math.NaN(), 0.0, 1.0, 0.2}
	count := []float64{0, 1, 2, -3}

	blended := blend(mean, count, 0.5, 1, 1)
	assert.True(t, math.IsNaN(blended[0]), "0/0 mean survives the blend step")
	assert.NotEqual(t, 0.5, blended[1])

	overwriteSparse(blended, count, 0.5)
	assert.Equal(t, []float64{0.5, 0.5, blended[2], 0.5}, blended)
}

func TestSmoothColorScenario(t *testing.T) {
	// red: 8 rows summing to 6.0, blue: 2 rows summing to 0.4
	mean := []float64{6.0 / 8, 0.4 / 2}
	count := []float64{8, 2}
	prior := 0.5

	s := smooth(mean, count, prior, 1, 1.0)
	red, blue := s[0], s[1]

	assert.Less(t, red, 0.75)
	assert.Greater(t, red, 0.5)
	assert.InDelta(t, 0.75, red, 0.01)

	assert.Greater(t, blue, 0.2)
	assert.Less(t, blue, 0.5)
	assert.Greater(t, math.Abs(blue-0.2)/0.3, math.Abs(red-0.75)/0.25,
		"blue must be pulled toward the prior more strongly than red")
}

func TestSmoothBetweennessProperty(t *testing.T) {
	src := rand.NewPCG(1, 1)
	meanDist := distuv.Uniform{Min: -5, Max: 5, Src: src}
	countDist := distuv.Poisson{Lambda: 6, Src: src}

	for trial := 0; trial < 500; trial++ {
		prior := meanDist.Rand()
		m := meanDist.Rand()
		c := countDist.Rand()
		smoothing := 1 + math.Abs(meanDist.Rand())
		if math.Abs(m-prior) < 1e-6 {
			continue
		}

		s := smooth([]float64{m}, []float64{c}, prior, 1, smoothing)[0]
		if c <= 1 {
			require.Equal(t, prior, s, "count %v", c)
			continue
		}
		lo, hi := math.Min(prior, m), math.Max(prior, m)
		require.Truef(t, s > lo && s < hi, "s=%v not strictly between %v and %v (count %v)", s, lo, hi, c)
	}
}

func TestSmoothDoesNotMutateInputs(t *testing.T) {
	mean := []float64{0.1, 0.9}
	count := []float64{1, 5}
	meanCopy := append([]float64(nil), mean...)

	_ = smooth(mean, count, 0.5, 1, 1)
	assert.True(t, floats.Equal(meanCopy, mean))
}
