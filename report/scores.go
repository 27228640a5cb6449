package report

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/catenc/core/frame"
	"github.com/YuminosukeSato/catenc/metrics"
	"github.com/YuminosukeSato/catenc/pkg/errors"
)

// ColumnScore measures how well one encoded column predicts the target.
// An in-sample encoding scores noticeably better than an out-of-fold one on
// the same rows; the gap is the target leakage the folds remove.
type ColumnScore struct {
	Column string
	MSE    float64
	R2     float64
}

// EncodingScores scores each of columns of encoded against y.
func EncodingScores(encoded *frame.Frame, y mat.Vector, columns []string) ([]ColumnScore, error) {
	if y.Len() != encoded.NRows() {
		return nil, errors.NewDimensionError("EncodingScores", encoded.NRows(), y.Len(), 0)
	}

	scores := make([]ColumnScore, 0, len(columns))
	for _, name := range columns {
		col, ok := encoded.Column(name)
		if !ok {
			return nil, errors.NewValidationError("column", "not present in frame", name)
		}
		if col.Kind != frame.Numeric {
			return nil, errors.Wrapf(errors.ErrColumnKind, "column %q is not encoded", name)
		}
		pred := mat.NewVecDense(len(col.Floats), col.Floats)

		mse, err := metrics.MSE(y, pred)
		if err != nil {
			return nil, errors.Wrapf(err, "scoring %s", name)
		}
		r2, err := metrics.R2Score(y, pred)
		if err != nil {
			return nil, errors.Wrapf(err, "scoring %s", name)
		}
		scores = append(scores, ColumnScore{Column: name, MSE: mse, R2: r2})
	}
	return scores, nil
}
