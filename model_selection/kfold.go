// Package model_selection partitions rows into cross-validation folds.
package model_selection

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/catenc/pkg/errors"
)

// Fold is one holdout set together with the rows used to estimate it.
// Indices are 0-based and sorted.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// Splitter partitions n rows into folds whose TestIndices are disjoint and
// together cover every row exactly once.
type Splitter interface {
	// Split returns the folds for n rows. y is only read by splitters that
	// stratify and may be nil otherwise.
	Split(n int, y []float64) ([]Fold, error)
	// NSplits returns the number of folds Split produces.
	NSplits() int
}

// KFold implements k-fold cross-validation splitter
type KFold struct {
	nSplits int
	shuffle bool
	seed    uint64
}

// NewKFold creates a k-fold splitter. nSplits must be at least 2.
func NewKFold(nSplits int, shuffle bool, seed uint64) (*KFold, error) {
	if nSplits < 2 {
		return nil, errors.NewValidationError("n_splits", "k-fold cross-validation requires at least 2 splits", nSplits)
	}
	return &KFold{nSplits: nSplits, shuffle: shuffle, seed: seed}, nil
}

// NSplits returns the number of splits
func (kf *KFold) NSplits() int {
	return kf.nSplits
}

// Split assigns consecutive blocks of the (optionally shuffled) row order to
// folds. The first n % k folds get one extra row.
func (kf *KFold) Split(n int, _ []float64) ([]Fold, error) {
	if n < kf.nSplits {
		return nil, errors.NewValidationError("n_splits",
			"cannot be greater than the number of samples", kf.nSplits)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if kf.shuffle {
		r := rand.New(rand.NewPCG(kf.seed, kf.seed))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	assignment := make([]int, n)
	foldSize := n / kf.nSplits
	remainder := n % kf.nSplits
	current := 0
	for f := 0; f < kf.nSplits; f++ {
		testSize := foldSize
		if f < remainder {
			testSize++
		}
		for _, idx := range indices[current : current+testSize] {
			assignment[idx] = f
		}
		current += testSize
	}

	return buildFolds(assignment, kf.nSplits), nil
}

// StratifiedKFold implements stratified k-fold cross-validation. Each class
// is spread over the folds so that every fold keeps roughly the class
// proportions of the whole target.
type StratifiedKFold struct {
	nSplits int
	shuffle bool
	seed    uint64
}

// NewStratifiedKFold creates a stratified splitter. nSplits must be at least 2.
func NewStratifiedKFold(nSplits int, shuffle bool, seed uint64) (*StratifiedKFold, error) {
	if nSplits < 2 {
		return nil, errors.NewValidationError("n_splits", "k-fold cross-validation requires at least 2 splits", nSplits)
	}
	return &StratifiedKFold{nSplits: nSplits, shuffle: shuffle, seed: seed}, nil
}

// NSplits returns the number of splits
func (skf *StratifiedKFold) NSplits() int {
	return skf.nSplits
}

// Split generates stratified folds. y must hold n integer-valued class labels.
// A FoldImbalanceWarning is raised through errors.Warn when some class has
// fewer members than there are folds.
func (skf *StratifiedKFold) Split(n int, y []float64) ([]Fold, error) {
	if len(y) != n {
		return nil, errors.NewDimensionError("StratifiedKFold.Split", n, len(y), 0)
	}
	if n < skf.nSplits {
		return nil, errors.NewValidationError("n_splits",
			"cannot be greater than the number of samples", skf.nSplits)
	}

	classIndices := make(map[float64][]int)
	for i, label := range y {
		if math.IsNaN(label) || math.IsInf(label, 0) || label != math.Trunc(label) {
			return nil, errors.NewValidationError("y",
				"stratified folds require integer class labels", label)
		}
		classIndices[label] = append(classIndices[label], i)
	}

	labels := make([]float64, 0, len(classIndices))
	for label := range classIndices {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	largest, smallest, smallestLabel := 0, n, labels[0]
	for _, label := range labels {
		size := len(classIndices[label])
		if size > largest {
			largest = size
		}
		if size < smallest {
			smallest, smallestLabel = size, label
		}
	}
	if largest < skf.nSplits {
		return nil, errors.NewValidationError("n_splits",
			"cannot be greater than the number of members in each class", skf.nSplits)
	}
	if smallest < skf.nSplits {
		errors.Warn(errors.NewFoldImbalanceWarning(smallestLabel, smallest, skf.nSplits))
	}

	var r *rand.Rand
	if skf.shuffle {
		r = rand.New(rand.NewPCG(skf.seed, skf.seed))
	}

	// Classes are dealt round-robin and the dealing position carries over
	// from one class to the next, so fold sizes differ by at most one.
	assignment := make([]int, n)
	offset := 0
	for _, label := range labels {
		indices := classIndices[label]
		if r != nil {
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
		for j, idx := range indices {
			assignment[idx] = (offset + j) % skf.nSplits
		}
		offset += len(indices)
	}

	return buildFolds(assignment, skf.nSplits), nil
}

// buildFolds turns a row→fold assignment into sorted train/test index sets.
func buildFolds(assignment []int, nSplits int) []Fold {
	folds := make([]Fold, nSplits)
	for i, f := range assignment {
		folds[f].TestIndices = append(folds[f].TestIndices, i)
	}
	for f := range folds {
		folds[f].TrainIndices = make([]int, 0, len(assignment)-len(folds[f].TestIndices))
		for i, g := range assignment {
			if g != f {
				folds[f].TrainIndices = append(folds[f].TrainIndices, i)
			}
		}
	}
	return folds
}

// CheckPartition verifies that the holdout sets of folds cover every row in
// [0, n) exactly once.
func CheckPartition(folds []Fold, n int) error {
	seen := make([]bool, n)
	covered := 0
	for f, fold := range folds {
		for _, idx := range fold.TestIndices {
			if idx < 0 || idx >= n {
				return errors.Wrapf(errors.ErrIncompleteFolds, "fold %d holds row %d outside [0, %d)", f, idx, n)
			}
			if seen[idx] {
				return errors.Wrapf(errors.ErrIncompleteFolds, "row %d is held out by more than one fold", idx)
			}
			seen[idx] = true
			covered++
		}
	}
	if covered != n {
		return errors.Wrapf(errors.ErrIncompleteFolds, "folds hold out %d of %d rows", covered, n)
	}
	return nil
}
