// Package catenc provides smoothed target encoding of categorical columns
// for Go, with the scikit-learn category_encoders parameter names.
//
// A target encoder replaces each category with a blend of the mean target
// of its rows and the global target mean (the prior). Frequent categories
// keep close to their own mean; rare ones are pulled towards the prior.
// With more than one fold, rows are encoded out-of-fold so that no row sees
// its own target.
//
// # Features
//
//   - Sigmoid smoothing controlled by min_samples_leaf and smoothing
//   - Policies for unseen categories and missing values: error, return_nan or value
//   - K-fold and stratified k-fold out-of-fold encoding
//   - Drop of invariant encoded columns
//   - gob persistence of fitted encoders
//   - A command line tool reading CSV and writing CSV or Parquet
//
// # Installation
//
//	go get github.com/YuminosukeSato/catenc
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/catenc/core/frame"
//	    "github.com/YuminosukeSato/catenc/preprocessing"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := frame.MustNew(frame.NewCategorical("city",
//	        []string{"tokyo", "tokyo", "osaka", "kyoto"}, nil))
//	    y := mat.NewVecDense(4, []float64{1, 0, 0, 1})
//
//	    enc := preprocessing.NewTargetEncoder(
//	        preprocessing.WithSmoothing(1.0),
//	        preprocessing.WithMinSamplesLeaf(1),
//	    )
//	    if err := enc.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    encoded, err := enc.TransformFrame(X, nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    city, _ := encoded.Column("city")
//	    fmt.Println(city.Floats)
//	}
//
// # Packages
//
//   - preprocessing: TargetEncoder and OrdinalEncoder
//   - model_selection: KFold and StratifiedKFold splitters
//   - core/frame: column-oriented tables with null masks and CSV reading
//   - core/model: fitted state management and gob persistence
//   - core/parallel: parallel processing utilities
//   - metrics: MSE, RMSE, MAE and R² of encoded columns
//   - report: shrinkage plots and encoding scores
//   - pkg/errors, pkg/log: error types and structured logging
//   - cmd/catenc: the catenc command
//
// # Out-of-fold encoding
//
//	enc := preprocessing.NewTargetEncoder(
//	    preprocessing.WithFoldCount(5),
//	    preprocessing.WithStratified(true),
//	    preprocessing.WithRandomState(42),
//	)
//	if err := enc.Fit(X, y); err != nil {
//	    log.Fatal(err)
//	}
//	// Passing the target encodes each row from the other folds.
//	train, err := enc.TransformFrame(X, y)
//
// # License
//
// catenc is released under the MIT License.
package catenc
