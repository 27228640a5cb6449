package model

import "io"

// ParameterGetter is the interface for estimators that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the estimator's hyperparameters keyed by their
	// scikit-learn names.
	GetParams() map[string]interface{}
}

// Persistable is the interface for estimators whose fitted state can be
// written and read back.
type Persistable interface {
	// Save writes the fitted state to w.
	Save(w io.Writer) error

	// Load replaces the estimator's state with the one read from r.
	Load(r io.Reader) error
}
