// Package dataio reads input tables and writes encoded tables for the
// catenc command.
package dataio

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"
	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/catenc/core/frame"
	"github.com/YuminosukeSato/catenc/pkg/errors"
)

// ReadFile reads a CSV file into a frame.
func ReadFile(path string, opts frame.CSVOptions) (*frame.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening %s", path)
	}
	defer f.Close()

	out, err := frame.ReadCSV(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", path)
	}
	return out, nil
}

// LoadAll reads every path concurrently. The frames are returned in the
// order of paths; the first error cancels the remaining reads.
func LoadAll(ctx context.Context, paths []string, opts frame.CSVOptions) ([]*frame.Frame, error) {
	frames := make([]*frame.Frame, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := ReadFile(path, opts)
			if err != nil {
				return err
			}
			frames[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

// WriteCSV writes f with a header line. Missing values become empty cells.
func WriteCSV(w io.Writer, f *frame.Frame, comma rune) error {
	cw := csv.NewWriter(w)
	if comma != 0 {
		cw.Comma = comma
	}
	if err := cw.Write(f.Names()); err != nil {
		return errors.Wrap(err, "error writing header")
	}

	record := make([]string, f.NCols())
	for i := 0; i < f.NRows(); i++ {
		for j, col := range f.Columns() {
			record[j] = cell(col, i)
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "error writing row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "error flushing csv")
}

func cell(col *frame.Column, i int) string {
	if col.IsNull(i) {
		return ""
	}
	if col.Kind == frame.Categorical {
		return col.Strings[i]
	}
	return strconv.FormatFloat(col.Floats[i], 'g', -1, 64)
}

// parquetSchema describes every column as an optional UTF8 or DOUBLE field.
func parquetSchema(f *frame.Frame) []string {
	md := make([]string, f.NCols())
	for j, col := range f.Columns() {
		typ := "DOUBLE"
		if col.Kind == frame.Categorical {
			typ = "UTF8"
		}
		md[j] = fmt.Sprintf("name=%s, type=%s, repetitiontype=OPTIONAL", col.Name, typ)
	}
	return md
}

// WriteParquet writes f to path using np writer goroutines.
func WriteParquet(path string, f *frame.Frame, np int64) (err error) {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close %s", path)
		}
	}()

	pw, err := writer.NewCSVWriter(parquetSchema(f), fw, np)
	if err != nil {
		return errors.Wrap(err, "failed to create parquet writer")
	}

	for i := 0; i < f.NRows(); i++ {
		rec := make([]interface{}, f.NCols())
		for j, col := range f.Columns() {
			switch {
			case col.IsNull(i):
				rec[j] = nil
			case col.Kind == frame.Categorical:
				rec[j] = col.Strings[i]
			default:
				rec[j] = col.Floats[i]
			}
		}
		if err := pw.Write(rec); err != nil {
			return errors.Wrapf(err, "failed to write parquet row %d", i)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return errors.Wrap(err, "parquet WriteStop error")
	}
	return nil
}

// WriteFile writes f to path in format ("csv" or "parquet"). A CSV path of
// "-" writes to stdout.
func WriteFile(path, format string, f *frame.Frame, comma rune, np int64) error {
	switch format {
	case "parquet":
		if path == "-" {
			return errors.NewValidationError("output", "parquet output needs a file path", path)
		}
		return WriteParquet(path, f, np)
	case "csv":
		if path == "-" {
			return WriteCSV(os.Stdout, f, comma)
		}
		out, err := os.Create(path)
		if err != nil {
			return errors.Wrapf(err, "failed to create %s", path)
		}
		if err := WriteCSV(out, f, comma); err != nil {
			out.Close()
			return err
		}
		return errors.Wrapf(out.Close(), "failed to close %s", path)
	default:
		return errors.NewValidationError("format", "must be csv or parquet", format)
	}
}
