package main

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/catenc/internal/config"
)

// encoderFlags override the encoder section of the configuration.
type encoderFlags struct {
	cols           []string
	handleMissing  string
	handleUnknown  string
	minSamplesLeaf float64
	smoothing      float64
	folds          int
	stratified     bool
	dropInvariant  bool
	randomState    uint64
	verbose        int
}

func (f *encoderFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringSliceVarP(&f.cols, "cols", "c", nil, "columns to encode (default: every categorical column)")
	fl.StringVarP(&f.handleMissing, "handle-missing", "", "value", "missing value policy: error, return_nan or value")
	fl.StringVarP(&f.handleUnknown, "handle-unknown", "", "value", "unseen category policy: error, return_nan or value")
	fl.Float64VarP(&f.minSamplesLeaf, "min-samples-leaf", "", 1, "count at which a category mean gets half weight")
	fl.Float64VarP(&f.smoothing, "smoothing", "s", 1, "width of the sigmoid blending category mean and prior")
	fl.IntVarP(&f.folds, "n-folds", "k", 1, "number of folds for out-of-fold encoding")
	fl.BoolVarP(&f.stratified, "stratified", "", false, "stratify folds by the target")
	fl.BoolVarP(&f.dropInvariant, "drop-invariant", "", false, "drop encoded columns with zero variance")
	fl.Uint64VarP(&f.randomState, "random-seed", "x", 0, "seed of the fold shuffle")
	fl.IntVarP(&f.verbose, "verbose", "v", 0, "verbosity of the encoder")
}

func (f *encoderFlags) apply(cmd *cobra.Command, e *config.EncoderConfig) {
	fl := cmd.Flags()
	if fl.Changed("cols") {
		e.Columns = f.cols
	}
	if fl.Changed("handle-missing") {
		e.HandleMissing = f.handleMissing
	}
	if fl.Changed("handle-unknown") {
		e.HandleUnknown = f.handleUnknown
	}
	if fl.Changed("min-samples-leaf") {
		e.MinSamplesLeaf = f.minSamplesLeaf
	}
	if fl.Changed("smoothing") {
		e.Smoothing = f.smoothing
	}
	if fl.Changed("n-folds") {
		e.FoldCount = f.folds
	}
	if fl.Changed("stratified") {
		e.Stratified = f.stratified
	}
	if fl.Changed("drop-invariant") {
		e.DropInvariant = f.dropInvariant
	}
	if fl.Changed("random-seed") {
		e.RandomState = f.randomState
	}
	if fl.Changed("verbose") {
		e.Verbose = f.verbose
	}
}

// dataFlags override the input and output sections of the configuration.
type dataFlags struct {
	target      string
	categorical []string
	delimiter   string
	format      string
}

func (f *dataFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.target, "target-column", "t", "target", "target column")
	fl.StringSliceVarP(&f.categorical, "categorical-columns", "", nil, "columns to read as categories even when numeric")
	fl.StringVarP(&f.delimiter, "delimiter", "d", ",", "CSV field delimiter")
	fl.StringVarP(&f.format, "format", "f", "csv", "output format: csv or parquet")
}

func (f *dataFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("target-column") {
		cfg.Input.Target = f.target
	}
	if fl.Changed("categorical-columns") {
		cfg.Input.Categorical = f.categorical
	}
	if fl.Changed("delimiter") {
		cfg.Input.Delimiter = f.delimiter
	}
	if fl.Changed("format") {
		cfg.Output.Format = f.format
	}
}
