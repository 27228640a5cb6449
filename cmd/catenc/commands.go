package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/catenc/core/frame"
	"github.com/YuminosukeSato/catenc/internal/dataio"
	"github.com/YuminosukeSato/catenc/pkg/errors"
	"github.com/YuminosukeSato/catenc/pkg/log"
	"github.com/YuminosukeSato/catenc/preprocessing"
	"github.com/YuminosukeSato/catenc/report"
)

func (a *app) fitCommand() *cobra.Command {
	var trainFile string
	var modelFile string
	var enc encoderFlags
	var data dataFlags

	cmd := &cobra.Command{
		Use:   "fit -i trainData -m modelFile",
		Short: "Fits a target encoder on the training data and saves it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.configure(cmd, &enc, &data); err != nil {
				return err
			}
			X, err := dataio.ReadFile(trainFile, a.csvOptions())
			if err != nil {
				return err
			}
			te, _, err := a.fit(X)
			if err != nil {
				return err
			}
			if err := te.SaveFile(modelFile); err != nil {
				return err
			}
			log.GetLoggerWithName("cli").Info("model saved", "path", modelFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&trainFile, "train-file", "i", "", "name of train file")
	cmd.Flags().StringVarP(&modelFile, "model", "m", "", "name of the file to save the encoder to")
	enc.register(cmd)
	data.register(cmd)

	_ = cmd.MarkFlagRequired("train-file")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func (a *app) transformCommand() *cobra.Command {
	var modelFile string
	var inputFile string
	var outputFile string
	var useTarget bool
	var data dataFlags

	cmd := &cobra.Command{
		Use:   "transform -m modelFile -i data [-o outputFile]",
		Short: "Encodes the input data with a saved target encoder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.configure(cmd, nil, &data); err != nil {
				return err
			}
			te := preprocessing.NewTargetEncoder()
			if err := te.LoadFile(modelFile); err != nil {
				return err
			}
			X, err := dataio.ReadFile(inputFile, a.csvOptions())
			if err != nil {
				return err
			}
			features, y, target, err := a.splitTarget(X)
			if err != nil {
				return err
			}

			var yv mat.Vector
			if useTarget {
				if y == nil {
					return errors.NewValidationError("target", "column not present in input", a.cfg.Input.Target)
				}
				yv = y
			}
			out, err := te.TransformFrame(features, yv)
			if err != nil {
				return err
			}
			return a.writeFrame(cmd, outputFile, out, target)
		},
	}

	cmd.Flags().StringVarP(&modelFile, "model", "m", "", "name of the saved encoder")
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "name of data input file")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "-", "name of output file (default stdout)")
	cmd.Flags().BoolVarP(&useTarget, "use-target", "", false, "encode out-of-fold using the target column of the input")
	data.register(cmd)

	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func (a *app) fitTransformCommand() *cobra.Command {
	var trainFile, testFile string
	var outputFile, testOutputFile string
	var modelFile string
	var score bool
	var enc encoderFlags
	var data dataFlags

	cmd := &cobra.Command{
		Use:   "fit-transform -i trainData -o outputFile [--test-file testData --test-output testOutput]",
		Short: "Fits a target encoder and encodes the training data and an optional test set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.configure(cmd, &enc, &data); err != nil {
				return err
			}
			if testFile != "" && testOutputFile == "" {
				return errors.NewValidationError("test-output", "required with --test-file", testOutputFile)
			}

			paths := []string{trainFile}
			if testFile != "" {
				paths = append(paths, testFile)
			}
			frames, err := dataio.LoadAll(cmd.Context(), paths, a.csvOptions())
			if err != nil {
				return err
			}

			te, split, err := a.fit(frames[0])
			if err != nil {
				return err
			}
			out, err := te.TransformFrame(split.features, split.y)
			if err != nil {
				return err
			}
			if err := a.writeFrame(cmd, outputFile, out, split.target); err != nil {
				return err
			}
			if score {
				if err := logScores(te, out, split.y); err != nil {
					return err
				}
			}

			if testFile != "" {
				features, _, target, err := a.splitTarget(frames[1])
				if err != nil {
					return err
				}
				testOut, err := te.TransformFrame(features, nil)
				if err != nil {
					return err
				}
				if err := a.writeFrame(cmd, testOutputFile, testOut, target); err != nil {
					return err
				}
			}

			if modelFile != "" {
				return te.SaveFile(modelFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&trainFile, "train-file", "i", "", "name of train file")
	cmd.Flags().StringVarP(&testFile, "test-file", "", "", "name of test file")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "-", "name of the encoded train output (default stdout)")
	cmd.Flags().StringVarP(&testOutputFile, "test-output", "", "", "name of the encoded test output")
	cmd.Flags().StringVarP(&modelFile, "model", "m", "", "name of the file to save the encoder to (optional)")
	cmd.Flags().BoolVarP(&score, "score", "", false, "log how well each encoded train column predicts the target")
	enc.register(cmd)
	data.register(cmd)

	_ = cmd.MarkFlagRequired("train-file")

	return cmd
}

func (a *app) inspectCommand() *cobra.Command {
	var modelFile string
	var columns []string
	var plotDir string
	var plotFormat string

	cmd := &cobra.Command{
		Use:   "inspect -m modelFile [-c column] [--plot-dir dir]",
		Short: "Prints the fitted category statistics and optionally draws shrinkage plots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			te := preprocessing.NewTargetEncoder()
			if err := te.LoadFile(modelFile); err != nil {
				return err
			}
			if len(columns) == 0 {
				cols, err := te.Columns()
				if err != nil {
					return err
				}
				columns = cols
			}

			if err := printSummary(cmd, te, columns); err != nil {
				return err
			}

			if plotDir == "" {
				return nil
			}
			for _, col := range columns {
				path := filepath.Join(plotDir, col+"."+plotFormat)
				if err := report.SaveShrinkagePlot(te, col, path); err != nil {
					return err
				}
				log.GetLoggerWithName("cli").Info("plot saved", "column", col, "path", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelFile, "model", "m", "", "name of the saved encoder")
	cmd.Flags().StringSliceVarP(&columns, "column", "c", nil, "columns to report (default: every encoded column)")
	cmd.Flags().StringVarP(&plotDir, "plot-dir", "p", "", "directory to write shrinkage plots to")
	cmd.Flags().StringVarP(&plotFormat, "plot-format", "", "png", "image format of the plots: png, svg or pdf")

	_ = cmd.MarkFlagRequired("model")

	return cmd
}

// configure applies command line overrides and validates the result.
func (a *app) configure(cmd *cobra.Command, enc *encoderFlags, data *dataFlags) error {
	if enc != nil {
		enc.apply(cmd, &a.cfg.Encoder)
	}
	if data != nil {
		data.apply(cmd, a.cfg)
	}
	return a.cfg.Validate()
}

func (a *app) csvOptions() frame.CSVOptions {
	return frame.CSVOptions{Comma: a.cfg.Comma(), Categorical: a.cfg.Input.Categorical}
}

type trainSplit struct {
	features *frame.Frame
	y        *mat.VecDense
	target   *frame.Column
}

// fit trains an encoder from the configuration on X, whose target column must
// be present.
func (a *app) fit(X *frame.Frame) (*preprocessing.TargetEncoder, trainSplit, error) {
	if X.NRows() == 0 {
		return nil, trainSplit{}, errors.Wrap(errors.ErrEmptyData, "training data has no rows")
	}
	features, y, target, err := a.splitTarget(X)
	if err != nil {
		return nil, trainSplit{}, err
	}
	if y == nil {
		return nil, trainSplit{}, errors.NewValidationError("target", "column not present in training data", a.cfg.Input.Target)
	}

	te := preprocessing.NewTargetEncoder(a.cfg.Options()...)
	if err := te.Fit(features, y); err != nil {
		return nil, trainSplit{}, err
	}
	cols, _ := te.Columns()
	log.GetLoggerWithName("cli").Info("encoder fitted",
		log.EstimatorIDKey, te.ID(),
		log.SamplesKey, X.NRows(),
		log.ColumnsKey, strings.Join(cols, ","),
	)
	return te, trainSplit{features: features, y: y, target: target}, nil
}

// splitTarget separates the target column when X carries it.
func (a *app) splitTarget(X *frame.Frame) (*frame.Frame, *mat.VecDense, *frame.Column, error) {
	name := a.cfg.Input.Target
	target, ok := X.Column(name)
	if !ok {
		return X, nil, nil, nil
	}
	features, y, err := X.SplitTarget(name)
	if err != nil {
		return nil, nil, nil, err
	}
	return features, y, target, nil
}

// writeFrame writes out, with target appended when given, to path. A CSV
// path of "-" goes to the command output.
func (a *app) writeFrame(cmd *cobra.Command, path string, out *frame.Frame, target *frame.Column) error {
	if target != nil {
		var err error
		out, err = frame.New(append(append([]*frame.Column{}, out.Columns()...), target)...)
		if err != nil {
			return err
		}
	}
	if path == "-" && a.cfg.Output.Format == "csv" {
		return dataio.WriteCSV(cmd.OutOrStdout(), out, a.cfg.Comma())
	}
	return dataio.WriteFile(path, a.cfg.Output.Format, out, a.cfg.Comma(), a.cfg.Output.ParquetWriters)
}

// logScores logs the MSE and R² of every encoded column still in out.
func logScores(te *preprocessing.TargetEncoder, out *frame.Frame, y mat.Vector) error {
	cols, err := te.Columns()
	if err != nil {
		return err
	}
	var kept []string
	for _, c := range cols {
		if _, ok := out.Column(c); ok {
			kept = append(kept, c)
		}
	}
	scores, err := report.EncodingScores(out, y, kept)
	if err != nil {
		return err
	}
	logger := log.GetLoggerWithName("cli")
	for _, s := range scores {
		logger.Info("encoding score", "column", s.Column, "mse", s.MSE, "r2", s.R2)
	}
	return nil
}

func printSummary(cmd *cobra.Command, te *preprocessing.TargetEncoder, columns []string) error {
	prior, err := te.Prior()
	if err != nil {
		return err
	}
	dropped, err := te.DroppedColumns()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "prior\t%.6g\n", prior)
	if len(dropped) > 0 {
		fmt.Fprintf(w, "dropped\t%s\n", strings.Join(dropped, ", "))
	}
	for _, col := range columns {
		stats, err := te.ColumnStatistics(col)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\ncolumn %s\n", col)
		fmt.Fprintln(w, "CATEGORY\tCODE\tCOUNT\tMEAN\tSMOOTHED")
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\t%d\t%.6g\t%.6g\n", s.Category, s.Code, s.Count, s.Mean, s.Smoothed)
		}
	}
	return w.Flush()
}
