package preprocessing

import (
	"io"
	"math"

	"github.com/YuminosukeSato/catenc/core/frame"
	"github.com/YuminosukeSato/catenc/core/model"
	"github.com/YuminosukeSato/catenc/pkg/errors"
	"github.com/YuminosukeSato/catenc/pkg/log"
)

var (
	_ model.FrameTransformer = (*OrdinalEncoder)(nil)
	_ model.ParameterGetter  = (*OrdinalEncoder)(nil)
	_ model.Persistable      = (*OrdinalEncoder)(nil)
)

const (
	// UnknownCode は学習時に存在しなかったカテゴリに割り当てられるコード
	UnknownCode = -1
	// MissingCodeUnseen は学習時に欠損値が存在しなかった列で欠損値に割り当てられるコード
	MissingCodeUnseen = -2
)

// maxReportedRows caps the row indices carried by UnknownCategoryError.
const maxReportedRows = 10

// CategoryMapping は1列分のカテゴリ→コードの対応
type CategoryMapping struct {
	Column string
	// Categories はコード順のカテゴリ。Categories[i] のコードは i+1
	// 欠損値がコードを持つ場合、その位置は空文字列になる
	Categories []string
	Codes      map[string]int
	// MissingCode は欠損値のコード。学習時に欠損値が無ければ MissingCodeUnseen
	MissingCode int
}

// Code returns the code for a present (non-null) category, or UnknownCode.
func (m *CategoryMapping) Code(category string) int {
	if code, ok := m.Codes[category]; ok {
		return code
	}
	return UnknownCode
}

// Len returns the number of codes assigned at fit, including the one given
// to missing values.
func (m *CategoryMapping) Len() int { return len(m.Categories) }

// OrdinalEncoder はカテゴリ列を整数コードに変換する
// コードは列ごとに出現順で1から振られる
type OrdinalEncoder struct {
	state  *model.StateManager
	logger log.Logger

	cols          []string
	handleUnknown Policy
	handleMissing Policy

	columns        []string
	featureNamesIn []string
	mappings       map[string]*CategoryMapping
}

// NewOrdinalEncoder は新しいOrdinalEncoderを作成する
//
// パラメータ:
//   - cols: 変換する列名（nil の場合は全てのカテゴリ列）
//   - handleUnknown: 未知カテゴリの扱い（value: -1, return_nan: NaN, error: エラー）
//   - handleMissing: 欠損値の扱い（value: 学習時のコードまたは -2, return_nan: NaN, error: エラー）
//
// 使用例:
//
//	enc := preprocessing.NewOrdinalEncoder(nil, preprocessing.PolicyValue, preprocessing.PolicyValue)
//	coded, err := enc.FitTransform(X)
func NewOrdinalEncoder(cols []string, handleUnknown, handleMissing Policy) *OrdinalEncoder {
	return &OrdinalEncoder{
		state:         model.NewStateManager(),
		logger:        log.GetLoggerWithName("preprocessing.ordinal").With(log.ModelNameKey, "OrdinalEncoder"),
		cols:          cols,
		handleUnknown: handleUnknown,
		handleMissing: handleMissing,
	}
}

// Fit は各列のカテゴリとコードの対応を学習する
func (e *OrdinalEncoder) Fit(X *frame.Frame) (err error) {
	defer errors.Recover(&err, "OrdinalEncoder.Fit")

	if err := e.handleUnknown.validate("handle_unknown"); err != nil {
		return err
	}
	if err := e.handleMissing.validate("handle_missing"); err != nil {
		return err
	}
	if X == nil || X.NRows() == 0 {
		return errors.NewModelError("OrdinalEncoder.Fit", "empty data", errors.ErrEmptyData)
	}

	columns, err := resolveColumns(X, e.cols)
	if err != nil {
		return err
	}
	if e.handleMissing == PolicyError {
		if err := checkNulls(X, columns, "fit"); err != nil {
			return err
		}
	}

	mappings := make(map[string]*CategoryMapping, len(columns))
	for _, name := range columns {
		col, _ := X.Column(name)
		mappings[name] = e.fitColumn(col)
	}

	return e.state.WithStateMut(func() error {
		e.columns = columns
		e.featureNamesIn = X.Names()
		e.mappings = mappings
		e.state.Fitted = true
		e.state.NFeatures = X.NCols()
		e.state.NSamples = X.NRows()

		e.logger.Debug("fit completed",
			log.OperationKey, log.OperationFit,
			log.SamplesKey, X.NRows(),
			log.ColumnsKey, columns,
		)
		return nil
	})
}

func (e *OrdinalEncoder) fitColumn(col *frame.Column) *CategoryMapping {
	m := &CategoryMapping{
		Column:      col.Name,
		Codes:       make(map[string]int),
		MissingCode: MissingCodeUnseen,
	}
	for i, v := range col.Strings {
		if col.IsNull(i) {
			if e.handleMissing == PolicyValue && m.MissingCode == MissingCodeUnseen {
				m.Categories = append(m.Categories, "")
				m.MissingCode = len(m.Categories)
			}
			continue
		}
		if _, ok := m.Codes[v]; !ok {
			m.Categories = append(m.Categories, v)
			m.Codes[v] = len(m.Categories)
		}
	}
	return m
}

// Transform は設定された列をコード（数値列）に置き換えたFrameを返す
func (e *OrdinalEncoder) Transform(X *frame.Frame) (out *frame.Frame, err error) {
	defer errors.Recover(&err, "OrdinalEncoder.Transform")

	err = e.state.WithState(func() error {
		if !e.state.Fitted {
			return errors.NewNotFittedError("OrdinalEncoder", "Transform")
		}
		out, err = e.transform(X)
		return err
	})
	return out, err
}

func (e *OrdinalEncoder) transform(X *frame.Frame) (*frame.Frame, error) {
	if X == nil {
		return nil, errors.NewValueError("OrdinalEncoder.Transform", "input frame is nil")
	}
	if err := checkFeatures(X, e.featureNamesIn); err != nil {
		return nil, err
	}
	if e.handleMissing == PolicyError {
		if err := checkNulls(X, e.columns, "transform"); err != nil {
			return nil, err
		}
	}

	replaced := make([]*frame.Column, 0, len(e.columns))
	for _, name := range e.columns {
		col, _ := X.Column(name)
		if col.Kind != frame.Categorical {
			return nil, errors.Wrapf(errors.ErrColumnKind,
				"column %q must be categorical to be encoded, got %s", name, col.Kind)
		}
		codes, err := e.codeColumn(col, e.mappings[name])
		if err != nil {
			return nil, err
		}
		replaced = append(replaced, frame.NewNumeric(name, codes))
	}
	return X.Replace(replaced...)
}

func (e *OrdinalEncoder) codeColumn(col *frame.Column, m *CategoryMapping) ([]float64, error) {
	codes := make([]float64, col.Len())
	var unknownRows []int
	for i, v := range col.Strings {
		switch {
		case col.IsNull(i):
			if e.handleMissing == PolicyReturnNaN {
				codes[i] = math.NaN()
			} else {
				codes[i] = float64(m.MissingCode)
			}
		default:
			code := m.Code(v)
			if code == UnknownCode {
				switch e.handleUnknown {
				case PolicyError:
					if len(unknownRows) < maxReportedRows {
						unknownRows = append(unknownRows, i)
					}
				case PolicyReturnNaN:
					codes[i] = math.NaN()
					continue
				}
			}
			codes[i] = float64(code)
		}
	}
	if len(unknownRows) > 0 {
		return nil, errors.NewUnknownCategoryError(col.Name, unknownRows)
	}
	return codes, nil
}

// FitTransform はFitとTransformを同時に実行する
func (e *OrdinalEncoder) FitTransform(X *frame.Frame) (*frame.Frame, error) {
	if err := e.Fit(X); err != nil {
		return nil, err
	}
	return e.Transform(X)
}

// CategoryMapping は列 column の学習済み対応を返す
func (e *OrdinalEncoder) CategoryMapping(column string) (*CategoryMapping, bool) {
	var m *CategoryMapping
	_ = e.state.WithState(func() error {
		m = e.mappings[column]
		return nil
	})
	return m, m != nil
}

// Columns は変換対象として解決された列名を返す（Fit前はnil）
func (e *OrdinalEncoder) Columns() []string {
	var cols []string
	_ = e.state.WithState(func() error {
		cols = append(cols, e.columns...)
		return nil
	})
	return cols
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *OrdinalEncoder) IsFitted() bool { return e.state.IsFitted() }

// GetParams はハイパーパラメータを返す
func (e *OrdinalEncoder) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"cols":           e.cols,
		"handle_unknown": string(e.handleUnknown),
		"handle_missing": string(e.handleMissing),
	}
}

// ordinalSnapshot is the gob form of a fitted OrdinalEncoder.
type ordinalSnapshot struct {
	Cols           []string
	HandleUnknown  Policy
	HandleMissing  Policy
	Columns        []string
	FeatureNamesIn []string
	Mappings       map[string]*CategoryMapping
	State          model.ModelState
}

func (e *OrdinalEncoder) snapshot() ordinalSnapshot {
	var s ordinalSnapshot
	_ = e.state.WithState(func() error {
		s = ordinalSnapshot{
			Cols:           e.cols,
			HandleUnknown:  e.handleUnknown,
			HandleMissing:  e.handleMissing,
			Columns:        e.columns,
			FeatureNamesIn: e.featureNamesIn,
			Mappings:       e.mappings,
			State: model.ModelState{
				Fitted:    e.state.Fitted,
				NFeatures: e.state.NFeatures,
				NSamples:  e.state.NSamples,
			},
		}
		return nil
	})
	return s
}

func (e *OrdinalEncoder) restore(s ordinalSnapshot) {
	_ = e.state.WithStateMut(func() error {
		e.cols = s.Cols
		e.handleUnknown = s.HandleUnknown
		e.handleMissing = s.HandleMissing
		e.columns = s.Columns
		e.featureNamesIn = s.FeatureNamesIn
		e.mappings = s.Mappings
		e.state.Fitted = s.State.Fitted
		e.state.NFeatures = s.State.NFeatures
		e.state.NSamples = s.State.NSamples
		return nil
	})
}

// Save は学習済みの状態を w に書き込む
func (e *OrdinalEncoder) Save(w io.Writer) error {
	if err := e.state.RequireFitted("OrdinalEncoder", "Save"); err != nil {
		return err
	}
	return model.SaveModelToWriter("OrdinalEncoder", e.snapshot(), w)
}

// Load は r から学習済みの状態を読み込む
func (e *OrdinalEncoder) Load(r io.Reader) error {
	var s ordinalSnapshot
	if err := model.LoadModelFromReader("OrdinalEncoder", &s, r); err != nil {
		return err
	}
	e.restore(s)
	return nil
}

// checkFeatures compares the columns of a transform input with the names
// seen at fit.
func checkFeatures(X *frame.Frame, featureNamesIn []string) error {
	if X.NCols() != len(featureNamesIn) {
		return errors.NewInputShapeError("transform",
			[]int{X.NRows(), len(featureNamesIn)}, []int{X.NRows(), X.NCols()})
	}
	for _, name := range featureNamesIn {
		if _, ok := X.Column(name); !ok {
			return errors.NewFeatureShapeError("transform", name,
				[]int{X.NRows(), 1}, []int{X.NRows(), 0})
		}
	}
	return nil
}

// resolveColumns returns cols, or every categorical column of X when cols is
// nil, after checking that each one exists and is categorical.
func resolveColumns(X *frame.Frame, cols []string) ([]string, error) {
	if cols == nil {
		return X.CategoricalNames(), nil
	}
	out := make([]string, 0, len(cols))
	for _, name := range cols {
		col, ok := X.Column(name)
		if !ok {
			return nil, errors.NewValidationError("cols", "column not present in input", name)
		}
		if col.Kind != frame.Categorical {
			return nil, errors.Wrapf(errors.ErrColumnKind,
				"column %q must be categorical to be encoded, got %s", name, col.Kind)
		}
		out = append(out, name)
	}
	return out, nil
}

func checkNulls(X *frame.Frame, columns []string, phase string) error {
	for _, name := range columns {
		col, ok := X.Column(name)
		if !ok {
			continue
		}
		if n := col.NullCount(); n > 0 {
			return errors.NewMissingValueError(phase, name, n)
		}
	}
	return nil
}
