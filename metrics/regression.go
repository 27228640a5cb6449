// Package metrics scores encoded columns against the target they were
// encoded from.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/catenc/pkg/errors"
)

// pairs collects (yTrue, yPred) pairs, skipping rows where either is NaN.
// An encoded column holds NaN under the return_nan policies.
func pairs(op string, yTrue, yPred mat.Vector) ([]float64, []float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, nil, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return nil, nil, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}

	ts := make([]float64, 0, n)
	ps := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		t, p := yTrue.AtVec(i), yPred.AtVec(i)
		if math.IsNaN(t) || math.IsNaN(p) {
			continue
		}
		ts = append(ts, t)
		ps = append(ps, p)
	}
	if len(ts) == 0 {
		return nil, nil, errors.NewValueError(op, "every row holds NaN")
	}
	return ts, ps, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred mat.Vector) (float64, error) {
	ts, ps, err := pairs("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := range ts {
		diff := ts[i] - ps[i]
		sum += diff * diff
	}
	return sum / float64(len(ts)), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred mat.Vector) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred mat.Vector) (float64, error) {
	ts, ps, err := pairs("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := range ts {
		sum += math.Abs(ts[i] - ps[i])
	}
	return sum / float64(len(ts)), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred mat.Vector) (float64, error) {
	ts, ps, err := pairs("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var yMean float64
	for _, t := range ts {
		yMean += t
	}
	yMean /= float64(len(ts))

	// 全変動（TSS）と残差変動（RSS）
	var tss, rss float64
	for i := range ts {
		tss += (ts[i] - yMean) * (ts[i] - yMean)
		rss += (ts[i] - ps[i]) * (ts[i] - ps[i])
	}

	// すべての yTrue が同じ値
	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}

	return 1 - rss/tss, nil
}
