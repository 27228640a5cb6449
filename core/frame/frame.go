// Package frame provides a small column-oriented table used as encoder input.
//
// A Frame holds named columns of one of two kinds: Categorical columns carry
// string values with an explicit null mask, Numeric columns carry float64
// values where NaN marks a missing value. Frames are treated as immutable;
// operations that change the column set return a new Frame sharing the
// untouched columns.
package frame

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/catenc/pkg/errors"
)

// Kind is the storage kind of a column.
type Kind int

const (
	// Categorical columns hold string categories.
	Categorical Kind = iota
	// Numeric columns hold float64 values.
	Numeric
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Categorical:
		return "categorical"
	case Numeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// Column is a single named column.
type Column struct {
	Name string
	Kind Kind

	// Strings holds the values of a Categorical column.
	Strings []string
	// Null marks missing values of a Categorical column. A nil mask means
	// no value is missing.
	Null []bool
	// Floats holds the values of a Numeric column; NaN is missing.
	Floats []float64
}

// NewCategorical creates a categorical column. null may be nil.
func NewCategorical(name string, values []string, null []bool) *Column {
	return &Column{Name: name, Kind: Categorical, Strings: values, Null: null}
}

// NewNumeric creates a numeric column.
func NewNumeric(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Numeric, Floats: values}
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == Categorical {
		return len(c.Strings)
	}
	return len(c.Floats)
}

// IsNull reports whether row i is missing.
func (c *Column) IsNull(i int) bool {
	if c.Kind == Categorical {
		return c.Null != nil && c.Null[i]
	}
	return math.IsNaN(c.Floats[i])
}

// NullCount returns the number of missing values.
func (c *Column) NullCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			n++
		}
	}
	return n
}

// Frame is an immutable collection of equally long, uniquely named columns.
type Frame struct {
	columns []*Column
	index   map[string]int
	nrows   int
}

// New builds a Frame from columns. All columns must have the same length
// and distinct names.
func New(columns ...*Column) (*Frame, error) {
	f := &Frame{
		columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, dup := f.index[c.Name]; dup {
			return nil, errors.NewValidationError("columns", "duplicate column name", c.Name)
		}
		if c.Kind == Categorical && c.Null != nil && len(c.Null) != len(c.Strings) {
			return nil, errors.NewDimensionError("frame.New", len(c.Strings), len(c.Null), 0)
		}
		if i == 0 {
			f.nrows = c.Len()
		} else if c.Len() != f.nrows {
			return nil, errors.NewDimensionError("frame.New", f.nrows, c.Len(), 0)
		}
		f.index[c.Name] = i
	}
	return f, nil
}

// MustNew is like New but panics on error. Intended for tests and examples.
func MustNew(columns ...*Column) *Frame {
	f, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return f
}

// NRows returns the number of rows.
func (f *Frame) NRows() int { return f.nrows }

// NCols returns the number of columns.
func (f *Frame) NCols() int { return len(f.columns) }

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the column called name.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.columns[i], true
}

// ColumnAt returns the j-th column.
func (f *Frame) ColumnAt(j int) *Column { return f.columns[j] }

// Columns returns the columns in order. The slice must not be modified.
func (f *Frame) Columns() []*Column { return f.columns }

// CategoricalNames returns the names of all Categorical columns in order.
func (f *Frame) CategoricalNames() []string {
	var names []string
	for _, c := range f.columns {
		if c.Kind == Categorical {
			names = append(names, c.Name)
		}
	}
	return names
}

// Replace returns a new Frame where the column with the same name as col is
// swapped for col.
func (f *Frame) Replace(cols ...*Column) (*Frame, error) {
	out := make([]*Column, len(f.columns))
	copy(out, f.columns)
	for _, c := range cols {
		i, ok := f.index[c.Name]
		if !ok {
			return nil, errors.NewValidationError("column", "not present in frame", c.Name)
		}
		out[i] = c
	}
	return New(out...)
}

// Drop returns a new Frame without the named columns. Unknown names are
// ignored.
func (f *Frame) Drop(names ...string) *Frame {
	if len(names) == 0 {
		return f
	}
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	kept := make([]*Column, 0, len(f.columns))
	for _, c := range f.columns {
		if !skip[c.Name] {
			kept = append(kept, c)
		}
	}
	out, _ := New(kept...)
	if len(kept) == 0 {
		out.nrows = f.nrows
	}
	return out
}

// SplitTarget removes the numeric column name from the frame and returns it
// as a vector alongside the remaining features.
func (f *Frame) SplitTarget(name string) (*Frame, *mat.VecDense, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, nil, errors.NewValidationError("target", "column not present in frame", name)
	}
	if c.Kind != Numeric {
		return nil, nil, errors.Wrapf(errors.ErrColumnKind, "target column %q must be numeric", name)
	}
	y := make([]float64, len(c.Floats))
	copy(y, c.Floats)
	var vec *mat.VecDense
	if len(y) > 0 {
		vec = mat.NewVecDense(len(y), y)
	}
	return f.Drop(name), vec, nil
}

// Dims implements mat.Matrix.
func (f *Frame) Dims() (r, c int) { return f.nrows, len(f.columns) }

// At implements mat.Matrix. It panics when column j is Categorical, just as
// mat.Dense panics on an out of range index.
func (f *Frame) At(i, j int) float64 {
	c := f.columns[j]
	if c.Kind != Numeric {
		panic(errors.Wrapf(errors.ErrColumnKind, "frame: column %q is not numeric", c.Name))
	}
	return c.Floats[i]
}

// T implements mat.Matrix.
func (f *Frame) T() mat.Matrix { return mat.Transpose{Matrix: f} }

// ToDense copies the frame into a dense matrix. Every column must be Numeric.
func (f *Frame) ToDense() (*mat.Dense, error) {
	for _, c := range f.columns {
		if c.Kind != Numeric {
			return nil, errors.Wrapf(errors.ErrColumnKind, "column %q is %s; encode it before converting to a matrix", c.Name, c.Kind)
		}
	}
	if f.nrows == 0 || len(f.columns) == 0 {
		return &mat.Dense{}, nil
	}
	data := make([]float64, f.nrows*len(f.columns))
	for j, c := range f.columns {
		for i, v := range c.Floats {
			data[i*len(f.columns)+j] = v
		}
	}
	return mat.NewDense(f.nrows, len(f.columns), data), nil
}

// FromDense wraps m as a frame of numeric columns with the given names.
// The data is copied.
func FromDense(m mat.Matrix, names []string) (*Frame, error) {
	r, c := m.Dims()
	if len(names) != c {
		return nil, errors.NewDimensionError("frame.FromDense", c, len(names), 1)
	}
	cols := make([]*Column, c)
	for j := 0; j < c; j++ {
		vals := make([]float64, r)
		for i := 0; i < r; i++ {
			vals[i] = m.At(i, j)
		}
		cols[j] = NewNumeric(names[j], vals)
	}
	return New(cols...)
}

// Equal reports whether two frames hold the same columns. NaN equals NaN.
func Equal(a, b *Frame) bool {
	if a.NRows() != b.NRows() || a.NCols() != b.NCols() {
		return false
	}
	for j, ca := range a.columns {
		cb := b.columns[j]
		if ca.Name != cb.Name || ca.Kind != cb.Kind {
			return false
		}
		for i := 0; i < a.nrows; i++ {
			if ca.IsNull(i) != cb.IsNull(i) {
				return false
			}
			if ca.IsNull(i) {
				continue
			}
			if ca.Kind == Categorical && ca.Strings[i] != cb.Strings[i] {
				return false
			}
			if ca.Kind == Numeric && ca.Floats[i] != cb.Floats[i] {
				return false
			}
		}
	}
	return true
}
