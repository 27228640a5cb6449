package preprocessing

import "math"

// sigmoid は 1/(1+e^-z)
func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// blend returns, in a fresh slice, prior*(1-w) + mean*w per category with
// w = sigmoid((count-minSamplesLeaf)/smoothing).
// mean[i] may be NaN when count[i] is zero; such entries are fixed by
// overwriteSparse.
func blend(mean, count []float64, prior, minSamplesLeaf, smoothing float64) []float64 {
	out := make([]float64, len(mean))
	for i := range mean {
		w := sigmoid((count[i] - minSamplesLeaf) / smoothing)
		out[i] = prior*(1-w) + mean[i]*w
	}
	return out
}

// overwriteSparse sets smoothed[i] to prior wherever count[i] <= 1.
// Counts can reach zero or go negative for out-of-fold statistics.
func overwriteSparse(smoothed, count []float64, prior float64) {
	for i, c := range count {
		if c <= 1 {
			smoothed[i] = prior
		}
	}
}

// smooth は blend の後に overwriteSparse を適用する
func smooth(mean, count []float64, prior, minSamplesLeaf, smoothing float64) []float64 {
	s := blend(mean, count, prior, minSamplesLeaf, smoothing)
	overwriteSparse(s, count, prior)
	return s
}
