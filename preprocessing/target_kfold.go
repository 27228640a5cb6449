package preprocessing

import (
	"math"

	"github.com/YuminosukeSato/catenc/model_selection"
	"github.com/YuminosukeSato/catenc/pkg/errors"
	"github.com/YuminosukeSato/catenc/pkg/log"
)

// newSplitter builds the fold partitioner from the resolved configuration.
// Shuffling is always on; RandomState makes it reproducible.
func (te *TargetEncoder) newSplitter() (model_selection.Splitter, error) {
	if te.params.Stratified {
		return model_selection.NewStratifiedKFold(te.params.FoldCount, true, te.params.RandomState)
	}
	return model_selection.NewKFold(te.params.FoldCount, true, te.params.RandomState)
}

// encodeOutOfFold encodes every row with statistics that exclude the fold
// the row is held out in. Per fold and column the holdout statistics are
// subtracted from the cached fit statistics.
func (te *TargetEncoder) encodeOutOfFold(fit *targetFit, codes map[string][]int, ys []float64) (map[string][]float64, error) {
	n := len(ys)
	splitter, err := te.newSplitter()
	if err != nil {
		return nil, err
	}
	folds, err := splitter.Split(n, ys)
	if err != nil {
		return nil, err
	}
	if err := model_selection.CheckPartition(folds, n); err != nil {
		return nil, errors.NewModelError("TargetEncoder.Transform", "fold partition is not exact", err)
	}

	out := make(map[string][]float64, len(fit.Columns))
	for _, name := range fit.Columns {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = math.NaN()
		}
		out[name] = vals
	}

	for f, fold := range folds {
		for _, name := range fit.Columns {
			fs := fit.FoldStats[name]
			cs := codes[name]

			holdout := groupStats(cs, ys, fold.TestIndices, fs.isSentinel)
			outOfFold := subtractStats(fs.Stats, holdout)
			m := &columnMapping{
				Values:      smoothStats(outOfFold, fit.Prior, te.params.MinSamplesLeaf, te.params.Smoothing),
				MissingCode: fs.MissingCode,
			}

			vals := out[name]
			for _, i := range fold.TestIndices {
				v, err := te.resolve(m.lookup(cs[i]), fit.Prior, name, i)
				if err != nil {
					return nil, err
				}
				vals[i] = v
			}
		}

		if te.params.Verbose > 0 {
			te.logger.Info("fold encoded",
				log.FoldKey, f,
				log.FoldsKey, len(folds),
				log.SamplesKey, len(fold.TestIndices),
			)
		}
	}
	return out, nil
}
