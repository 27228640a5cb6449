package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/catenc/pkg/errors"
)

// DefaultNullTokens are the cell values ReadCSV treats as missing.
var DefaultNullTokens = []string{"", "NA", "NaN", "nan", "null", "NULL"}

// CSVOptions controls ReadCSV.
type CSVOptions struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// Categorical forces the named columns to be read as Categorical even
	// when every value parses as a number.
	Categorical []string
	// NullTokens overrides DefaultNullTokens when non-nil.
	NullTokens []string
}

// ReadCSV reads a CSV stream whose first line is a header. A column is
// Numeric when every non-null cell parses as a float, otherwise Categorical.
// A column named in opts.Categorical that would have been Numeric raises a
// DataConversionWarning.
func ReadCSV(r io.Reader, opts CSVOptions) (*Frame, error) {
	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "error reading data header")
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "error reading data rows")
	}

	nullTokens := opts.NullTokens
	if nullTokens == nil {
		nullTokens = DefaultNullTokens
	}
	isNull := make(map[string]bool, len(nullTokens))
	for _, t := range nullTokens {
		isNull[t] = true
	}
	forced := make(map[string]bool, len(opts.Categorical))
	for _, name := range opts.Categorical {
		forced[name] = true
	}

	columns := make([]*Column, len(header))
	for j, name := range header {
		name = strings.TrimSpace(name)
		raw := make([]string, len(records))
		null := make([]bool, len(records))
		for i, record := range records {
			raw[i] = record[j]
			null[i] = isNull[record[j]]
		}

		if floats, ok := parseFloats(raw, null); ok {
			if !forced[name] {
				columns[j] = NewNumeric(name, floats)
				continue
			}
			errors.Warn(errors.NewDataConversionWarning("numeric", "categorical",
				fmt.Sprintf("column %q is listed as categorical", name)))
		}
		for i := range raw {
			if null[i] {
				raw[i] = ""
			}
		}
		columns[j] = NewCategorical(name, raw, null)
	}

	return New(columns...)
}

func parseFloats(raw []string, null []bool) ([]float64, bool) {
	out := make([]float64, len(raw))
	for i, s := range raw {
		if null[i] {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
