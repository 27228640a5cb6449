package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/catenc/pkg/errors"
)

func TestMSE(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{
			name:  "perfect prediction",
			yTrue: mat.NewVecDense(5, []float64{1, 2, 3, 4, 5}),
			yPred: mat.NewVecDense(5, []float64{1, 2, 3, 4, 5}),
			want:  0,
		},
		{
			name:  "simple case",
			yTrue: mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			yPred: mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5}),
			want:  0.25,
		},
		{
			name:  "NaN rows are skipped",
			yTrue: mat.NewVecDense(3, []float64{10, 20, 30}),
			yPred: mat.NewVecDense(3, []float64{12, math.NaN(), 33}),
			want:  6.5,
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(3, []float64{1, 2, 3}),
			yPred:   mat.NewVecDense(2, []float64{1, 2}),
			wantErr: true,
		},
		{
			name:    "empty vectors",
			yTrue:   &mat.VecDense{},
			yPred:   &mat.VecDense{},
			wantErr: true,
		},
		{
			name:    "only NaN predictions",
			yTrue:   mat.NewVecDense(2, []float64{1, 2}),
			yPred:   mat.NewVecDense(2, []float64{math.NaN(), math.NaN()}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MSE(tt.yTrue, tt.yPred)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-10)
		})
	}
}

func TestMSEDimensionError(t *testing.T) {
	_, err := MSE(mat.NewVecDense(3, nil), mat.NewVecDense(2, nil))
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Got)
}

func TestRMSE(t *testing.T) {
	got, err := RMSE(
		mat.NewVecDense(3, []float64{10, 20, 30}),
		mat.NewVecDense(3, []float64{12, 18, 33}),
	)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(17.0/3.0), got, 1e-10)

	_, err = RMSE(mat.NewVecDense(1, nil), mat.NewVecDense(2, nil))
	assert.Error(t, err)
}

func TestMAE(t *testing.T) {
	got, err := MAE(
		mat.NewVecDense(4, []float64{1, 2, 3, 4}),
		mat.NewVecDense(4, []float64{2, 1, 3, 6}),
	)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-10)

	_, err = MAE(&mat.VecDense{}, &mat.VecDense{})
	assert.Error(t, err)
}

func TestR2Score(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{name: "perfect prediction", yTrue: []float64{1, 2, 3}, yPred: []float64{1, 2, 3}, want: 1},
		{name: "mean baseline", yTrue: []float64{1, 2, 3}, yPred: []float64{2, 2, 2}, want: 0},
		{name: "worse than mean baseline", yTrue: []float64{1, 2, 3}, yPred: []float64{3, 2, 1}, want: -3},
		{name: "no variance in yTrue", yTrue: []float64{2, 2, 2}, yPred: []float64{1, 2, 3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := R2Score(
				mat.NewVecDense(len(tt.yTrue), tt.yTrue),
				mat.NewVecDense(len(tt.yPred), tt.yPred),
			)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-10)
		})
	}
}

func BenchmarkMSE(b *testing.B) {
	n := 10000
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yTrue.SetVec(i, float64(i))
		yPred.SetVec(i, float64(i)+0.5)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MSE(yTrue, yPred)
	}
}
