package preprocessing

import "github.com/YuminosukeSato/catenc/pkg/errors"

// TargetOption is a function that configures TargetEncoder
type TargetOption func(*targetParams)

// targetParams holds the configuration of a TargetEncoder. Fields are
// exported for gob.
type targetParams struct {
	Cols           []string
	HandleMissing  Policy
	HandleUnknown  Policy
	MinSamplesLeaf float64
	Smoothing      float64
	FoldCount      int
	Stratified     bool
	DropInvariant  bool
	ReturnFrame    bool
	RandomState    uint64
	Verbose        int
}

func defaultTargetParams() targetParams {
	return targetParams{
		HandleMissing:  PolicyValue,
		HandleUnknown:  PolicyValue,
		MinSamplesLeaf: 1,
		Smoothing:      1.0,
		FoldCount:      1,
		ReturnFrame:    true,
	}
}

// WithColumns sets the columns to encode. nil encodes every categorical column.
func WithColumns(cols ...string) TargetOption {
	return func(p *targetParams) {
		p.Cols = cols
	}
}

// WithHandleMissing sets how null categories are encoded
func WithHandleMissing(policy Policy) TargetOption {
	return func(p *targetParams) {
		p.HandleMissing = policy
	}
}

// WithHandleUnknown sets how categories unseen at fit are encoded
func WithHandleUnknown(policy Policy) TargetOption {
	return func(p *targetParams) {
		p.HandleUnknown = policy
	}
}

// WithMinSamplesLeaf sets the category count at which the smoothing weight is 0.5.
// It must be strictly positive.
func WithMinSamplesLeaf(n float64) TargetOption {
	return func(p *targetParams) {
		p.MinSamplesLeaf = n
	}
}

// WithSmoothing sets the smoothing strength. It must be strictly positive.
func WithSmoothing(smoothing float64) TargetOption {
	return func(p *targetParams) {
		p.Smoothing = smoothing
	}
}

// WithFoldCount sets the number of folds used to encode training data.
// 1 disables out-of-fold encoding.
func WithFoldCount(n int) TargetOption {
	return func(p *targetParams) {
		p.FoldCount = n
	}
}

// WithStratified stratifies the folds by the target
func WithStratified(stratified bool) TargetOption {
	return func(p *targetParams) {
		p.Stratified = stratified
	}
}

// WithDropInvariant drops encoded columns with near-zero variance
func WithDropInvariant(drop bool) TargetOption {
	return func(p *targetParams) {
		p.DropInvariant = drop
	}
}

// WithReturnFrame selects *frame.Frame output (true) or *mat.Dense (false)
func WithReturnFrame(returnFrame bool) TargetOption {
	return func(p *targetParams) {
		p.ReturnFrame = returnFrame
	}
}

// WithRandomState seeds the fold shuffling
func WithRandomState(seed uint64) TargetOption {
	return func(p *targetParams) {
		p.RandomState = seed
	}
}

// WithVerbose sets the verbosity. Values above zero log per-fold progress.
func WithVerbose(level int) TargetOption {
	return func(p *targetParams) {
		p.Verbose = level
	}
}

func (p *targetParams) validate() error {
	if err := p.HandleMissing.validate("handle_missing"); err != nil {
		return err
	}
	if err := p.HandleUnknown.validate("handle_unknown"); err != nil {
		return err
	}
	for _, v := range []struct {
		name  string
		value float64
	}{{"smoothing", p.Smoothing}, {"min_samples_leaf", p.MinSamplesLeaf}} {
		if err := errors.CheckScalar(v.name, v.value); err != nil {
			return errors.WithSecondaryError(errors.NewValidationError(v.name, "must be finite", v.value), err)
		}
	}
	if !(p.Smoothing > 0) {
		return errors.NewValidationError("smoothing", "must be strictly positive", p.Smoothing)
	}
	if !(p.MinSamplesLeaf > 0) {
		return errors.NewValidationError("min_samples_leaf", "must be strictly positive", p.MinSamplesLeaf)
	}
	if p.FoldCount < 1 {
		return errors.NewValidationError("n_folds", "must be at least 1", p.FoldCount)
	}
	return nil
}
