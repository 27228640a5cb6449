package preprocessing

import (
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/catenc/core/frame"
	"github.com/YuminosukeSato/catenc/core/model"
	"github.com/YuminosukeSato/catenc/core/parallel"
	"github.com/YuminosukeSato/catenc/pkg/errors"
	"github.com/YuminosukeSato/catenc/pkg/log"
)

var (
	_ model.SupervisedTransformer = (*TargetEncoder)(nil)
	_ model.FeatureNamer          = (*TargetEncoder)(nil)
	_ model.ParameterGetter       = (*TargetEncoder)(nil)
	_ model.Persistable           = (*TargetEncoder)(nil)
)

// invariantThreshold is the sample variance at or below which an encoded
// column counts as invariant.
const invariantThreshold = 1e-5

// TargetEncoder はカテゴリ列を、そのカテゴリにおける目的変数の平滑化された平均に置き換える
//
// 各カテゴリの平均は件数に応じたシグモイド重みで全体平均（事前分布）と混合される。
// 件数が1以下のカテゴリは事前分布そのものになる。
// FoldCount > 1 で目的変数を渡して Transform すると、各行は自分の属するfold
// を除いた統計量で符号化される（目的変数のリークを防ぐ）。
//
// 学習済みの状態は Fit 後に変更されないため、並行した Transform は安全である。
// Transform 中に再度 Fit を呼んではならない。
type TargetEncoder struct {
	state  *model.StateManager
	id     string
	logger log.Logger

	params targetParams
	fitted *targetFit
}

// targetFit is everything Fit learns. It is immutable once built.
type targetFit struct {
	Ordinal        ordinalSnapshot
	Columns        []string
	FeatureNamesIn []string
	Prior          float64
	Mappings       map[string]*columnMapping
	FoldStats      map[string]*foldStatistics
	FeatureNames   []string
	DropCols       []string

	ordinal *OrdinalEncoder
}

// NewTargetEncoder は新しいTargetEncoderを作成する
//
// 既定値: handle_missing=value, handle_unknown=value, min_samples_leaf=1,
// smoothing=1.0, n_folds=1, return_df=true
//
// 使用例:
//
//	enc := preprocessing.NewTargetEncoder(
//	    preprocessing.WithColumns("city"),
//	    preprocessing.WithFoldCount(5),
//	    preprocessing.WithStratified(true),
//	)
//	out, err := enc.FitTransform(X, y)
func NewTargetEncoder(opts ...TargetOption) *TargetEncoder {
	params := defaultTargetParams()
	for _, opt := range opts {
		opt(&params)
	}

	id := uuid.New().String()
	return &TargetEncoder{
		state: model.NewStateManager(),
		id:    id,
		logger: log.GetLoggerWithName("preprocessing.target").With(
			log.ModelNameKey, "TargetEncoder",
			log.EstimatorIDKey, id,
		),
		params: params,
	}
}

// ID returns the estimator id attached to every log record of this encoder.
func (te *TargetEncoder) ID() string { return te.id }

// Validate checks the configuration without fitting.
func (te *TargetEncoder) Validate() error { return te.params.validate() }

// Fit は特徴量 X と目的変数 y からカテゴリごとの統計量を学習する
//
// パラメータ:
//   - X: 学習データ。符号化する列はカテゴリ列である必要がある
//   - y: 目的変数（X と同じ行数）
//
// 戻り値:
//   - error: 設定不正、次元不一致、欠損値（handle_missing=error の場合）など
func (te *TargetEncoder) Fit(X *frame.Frame, y mat.Vector) (err error) {
	defer errors.Recover(&err, "TargetEncoder.Fit")
	start := time.Now()

	if err := te.params.validate(); err != nil {
		return err
	}
	if X == nil || X.NRows() == 0 {
		return errors.NewModelError("TargetEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	if y == nil {
		return errors.NewValueError("TargetEncoder.Fit", "a target is required")
	}
	ys, err := targetValues("TargetEncoder.Fit", X.NRows(), y)
	if err != nil {
		return err
	}

	columns, err := resolveColumns(X, te.params.Cols)
	if err != nil {
		return err
	}
	if te.params.HandleMissing == PolicyError {
		if err := checkNulls(X, columns, "fit"); err != nil {
			return err
		}
	}

	ordinal := NewOrdinalEncoder(columns, PolicyValue, PolicyValue)
	coded, err := ordinal.FitTransform(X)
	if err != nil {
		return err
	}

	fit := &targetFit{
		Ordinal:        ordinal.snapshot(),
		Columns:        columns,
		FeatureNamesIn: X.Names(),
		Prior:          stat.Mean(ys, nil),
		Mappings:       make(map[string]*columnMapping, len(columns)),
		FoldStats:      make(map[string]*foldStatistics, len(columns)),
		ordinal:        ordinal,
	}
	for _, name := range columns {
		cm, _ := ordinal.CategoryMapping(name)
		fs := &foldStatistics{MissingCode: cm.MissingCode}
		fs.Stats = groupStats(columnCodes(coded, name), ys, nil, fs.isSentinel)

		fit.FoldStats[name] = fs
		fit.Mappings[name] = &columnMapping{
			Values:      smoothStats(fs.Stats, fit.Prior, te.params.MinSamplesLeaf, te.params.Smoothing),
			MissingCode: cm.MissingCode,
		}
		te.logger.Debug("column statistics built",
			log.ColumnsKey, name,
			log.CategoriesKey, len(fs.Stats),
		)
	}

	// A single self-transform yields the output names and the columns to drop.
	out, err := te.encode(fit, X, ys)
	if err != nil {
		return err
	}
	fit.FeatureNames = out.Names()
	if te.params.DropInvariant {
		fit.DropCols = invariantColumns(out, columns)
		fit.FeatureNames = te.removeFeatureNames(fit.FeatureNames, fit.DropCols)
	}

	err = te.state.WithStateMut(func() error {
		te.fitted = fit
		te.state.Fitted = true
		te.state.NFeatures = X.NCols()
		te.state.NSamples = X.NRows()
		return nil
	})
	if err != nil {
		return err
	}

	te.logger.Debug("fit completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, X.NRows(),
		log.FeaturesKey, X.NCols(),
		log.ColumnsKey, columns,
		log.PriorKey, fit.Prior,
		log.FoldsKey, te.params.FoldCount,
		log.DroppedColumnsKey, fit.DropCols,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Transform は学習済みの統計量で X を符号化する
//
// y を渡し、かつ FoldCount > 1 の場合は fold ごとの統計量で符号化する。
// 推論時は y に nil を渡す。
//
// 戻り値は ReturnFrame が true なら *frame.Frame、false なら *mat.Dense
func (te *TargetEncoder) Transform(X *frame.Frame, y mat.Vector) (mat.Matrix, error) {
	out, err := te.TransformFrame(X, y)
	if err != nil {
		return nil, err
	}
	if te.params.ReturnFrame {
		return out, nil
	}
	return out.ToDense()
}

// TransformFrame is Transform with the output always returned as a frame.
func (te *TargetEncoder) TransformFrame(X *frame.Frame, y mat.Vector) (out *frame.Frame, err error) {
	defer errors.Recover(&err, "TargetEncoder.Transform")
	start := time.Now()

	fit, err := te.current("Transform")
	if err != nil {
		return nil, err
	}
	if X == nil {
		return nil, errors.NewValueError("TargetEncoder.Transform", "input frame is nil")
	}
	if err := checkFeatures(X, fit.FeatureNamesIn); err != nil {
		return nil, err
	}

	var ys []float64
	if y != nil {
		if ys, err = targetValues("TargetEncoder.Transform", X.NRows(), y); err != nil {
			return nil, err
		}
	}

	out, err = te.encode(fit, X, ys)
	if err != nil {
		te.logger.Debug("transform failed", log.OperationKey, log.OperationTransform, log.ErrAttrKey, err)
		return nil, err
	}

	te.logger.Debug("transform completed",
		log.OperationKey, log.OperationTransform,
		log.SamplesKey, X.NRows(),
		log.FoldsKey, te.foldsFor(ys),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return out, nil
}

// FitTransform は Fit の後に同じ目的変数で Transform を実行する
func (te *TargetEncoder) FitTransform(X *frame.Frame, y mat.Vector) (mat.Matrix, error) {
	if err := te.Fit(X, y); err != nil {
		return nil, err
	}
	return te.Transform(X, y)
}

// FeatureNames は出力列の名前を返す（削除された不変列は含まない）
func (te *TargetEncoder) FeatureNames() ([]string, error) {
	fit, err := te.current("FeatureNames")
	if err != nil {
		return nil, err
	}
	return append([]string(nil), fit.FeatureNames...), nil
}

// DroppedColumns returns the encoded columns removed as invariant at fit.
func (te *TargetEncoder) DroppedColumns() ([]string, error) {
	fit, err := te.current("DroppedColumns")
	if err != nil {
		return nil, err
	}
	return append([]string(nil), fit.DropCols...), nil
}

// Prior は学習データにおける目的変数の平均を返す
func (te *TargetEncoder) Prior() (float64, error) {
	fit, err := te.current("Prior")
	if err != nil {
		return 0, err
	}
	return fit.Prior, nil
}

// Columns returns the columns the encoder was fitted to encode.
func (te *TargetEncoder) Columns() ([]string, error) {
	fit, err := te.current("Columns")
	if err != nil {
		return nil, err
	}
	return append([]string(nil), fit.Columns...), nil
}

// CategorySummary describes one category of an encoded column.
type CategorySummary struct {
	Category string
	Code     int
	Count    int
	Mean     float64
	Smoothed float64
}

// ColumnStatistics は列 column の各カテゴリの件数・平均・平滑化後の値をコード順に返す
func (te *TargetEncoder) ColumnStatistics(column string) ([]CategorySummary, error) {
	fit, err := te.current("ColumnStatistics")
	if err != nil {
		return nil, err
	}
	fs, ok := fit.FoldStats[column]
	if !ok {
		return nil, errors.NewValidationError("column", "not an encoded column", column)
	}
	cm := fit.Ordinal.Mappings[column]

	codes := sortedCodes(fs.Stats)
	out := make([]CategorySummary, 0, len(codes))
	for _, code := range codes {
		s := fs.Stats[code]
		out = append(out, CategorySummary{
			Category: cm.Categories[code-1],
			Code:     code,
			Count:    s.Count,
			Mean:     s.Mean(),
			Smoothed: fit.Mappings[column].Values[code],
		})
	}
	return out, nil
}

// IsFitted はモデルが学習済みかどうかを返す
func (te *TargetEncoder) IsFitted() bool { return te.state.IsFitted() }

// GetParams はハイパーパラメータを scikit-learn の名前で返す
func (te *TargetEncoder) GetParams() map[string]interface{} {
	p := te.params
	return map[string]interface{}{
		"verbose":          p.Verbose,
		"cols":             p.Cols,
		"drop_invariant":   p.DropInvariant,
		"return_df":        p.ReturnFrame,
		"handle_missing":   string(p.HandleMissing),
		"handle_unknown":   string(p.HandleUnknown),
		"min_samples_leaf": p.MinSamplesLeaf,
		"smoothing":        p.Smoothing,
		"n_folds":          p.FoldCount,
		"stratified":       p.Stratified,
		"random_state":     p.RandomState,
	}
}

// targetSnapshot is the gob form of a fitted TargetEncoder.
type targetSnapshot struct {
	Params targetParams
	Fit    *targetFit
	State  model.ModelState
}

// Save は学習済みの状態を w に書き込む
func (te *TargetEncoder) Save(w io.Writer) error {
	fit, err := te.current("Save")
	if err != nil {
		return err
	}
	snap := targetSnapshot{Params: te.params, Fit: fit, State: te.state.GetState()}
	return model.SaveModelToWriter("TargetEncoder", snap, w)
}

// SaveFile は学習済みの状態を path に保存する
func (te *TargetEncoder) SaveFile(path string) error {
	fit, err := te.current("SaveFile")
	if err != nil {
		return err
	}
	snap := targetSnapshot{Params: te.params, Fit: fit, State: te.state.GetState()}
	return model.SaveModel("TargetEncoder", snap, path)
}

// Load は r から学習済みの状態を読み込み、現在の設定と状態を置き換える
func (te *TargetEncoder) Load(r io.Reader) error {
	var snap targetSnapshot
	if err := model.LoadModelFromReader("TargetEncoder", &snap, r); err != nil {
		return err
	}
	return te.restore(snap)
}

// LoadFile は path に保存された状態を読み込む
func (te *TargetEncoder) LoadFile(path string) error {
	var snap targetSnapshot
	if err := model.LoadModel("TargetEncoder", &snap, path); err != nil {
		return err
	}
	return te.restore(snap)
}

func (te *TargetEncoder) restore(snap targetSnapshot) error {
	if snap.Fit == nil {
		return errors.NewValueError("TargetEncoder.Load", "snapshot holds no fitted state")
	}
	if err := snap.Params.validate(); err != nil {
		return err
	}

	ordinal := NewOrdinalEncoder(nil, PolicyValue, PolicyValue)
	ordinal.restore(snap.Fit.Ordinal)
	snap.Fit.ordinal = ordinal

	return te.state.WithStateMut(func() error {
		te.params = snap.Params
		te.fitted = snap.Fit
		te.state.Fitted = snap.State.Fitted
		te.state.NFeatures = snap.State.NFeatures
		te.state.NSamples = snap.State.NSamples
		return nil
	})
}

// current returns the fitted state or a NotFittedError naming method.
func (te *TargetEncoder) current(method string) (*targetFit, error) {
	var fit *targetFit
	err := te.state.WithState(func() error {
		if !te.state.Fitted || te.fitted == nil {
			return errors.NewNotFittedError("TargetEncoder", method)
		}
		fit = te.fitted
		return nil
	})
	return fit, err
}

// encode runs the transform sequence against fit: null policy, ordinal
// coding, unknown check, plain or out-of-fold encoding, invariant drop.
func (te *TargetEncoder) encode(fit *targetFit, X *frame.Frame, ys []float64) (*frame.Frame, error) {
	if len(fit.Columns) == 0 {
		return X, nil
	}
	if te.params.HandleMissing == PolicyError {
		if err := checkNulls(X, fit.Columns, "transform"); err != nil {
			return nil, err
		}
	}

	coded, err := fit.ordinal.Transform(X)
	if err != nil {
		return nil, err
	}
	codes := make(map[string][]int, len(fit.Columns))
	for _, name := range fit.Columns {
		codes[name] = columnCodes(coded, name)
	}

	if te.params.HandleUnknown == PolicyError {
		for _, name := range fit.Columns {
			if rows := unknownRows(codes[name]); len(rows) > 0 {
				return nil, errors.NewUnknownCategoryError(name, rows)
			}
		}
	}

	var encoded map[string][]float64
	if ys != nil && te.params.FoldCount > 1 {
		encoded, err = te.encodeOutOfFold(fit, codes, ys)
	} else {
		encoded, err = te.encodePlain(fit, codes)
	}
	if err != nil {
		return nil, err
	}

	cols := make([]*frame.Column, 0, len(fit.Columns))
	for _, name := range fit.Columns {
		cols = append(cols, frame.NewNumeric(name, encoded[name]))
	}
	out, err := X.Replace(cols...)
	if err != nil {
		return nil, err
	}
	return out.Drop(fit.DropCols...), nil
}

// encodePlain looks every code up in the fitted mapping.
func (te *TargetEncoder) encodePlain(fit *targetFit, codes map[string][]int) (map[string][]float64, error) {
	out := make(map[string][]float64, len(fit.Columns))
	for _, name := range fit.Columns {
		m := fit.Mappings[name]
		cs := codes[name]
		vals := make([]float64, len(cs))
		err := parallel.ParallelizeErr(len(cs), parallel.DefaultThreshold, func(start, end int) error {
			for i := start; i < end; i++ {
				v, err := te.resolve(m.lookup(cs[i]), fit.Prior, name, i)
				if err != nil {
					return err
				}
				vals[i] = v
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		out[name] = vals
	}
	return out, nil
}

// resolve turns a lookup into a number using the configured policies.
func (te *TargetEncoder) resolve(l lookup, prior float64, column string, row int) (float64, error) {
	if l.kind == known {
		return l.value, nil
	}

	policy := te.params.HandleUnknown
	if l.kind == missing {
		policy = te.params.HandleMissing
	}
	switch policyOutcome[policy] {
	case usePrior:
		return prior, nil
	case useNaN:
		return math.NaN(), nil
	default:
		if l.kind == missing {
			return 0, errors.NewMissingValueError("transform", column, 1)
		}
		return 0, errors.NewUnknownCategoryError(column, []int{row})
	}
}

func (te *TargetEncoder) foldsFor(ys []float64) int {
	if ys == nil || te.params.FoldCount <= 1 {
		return 1
	}
	return te.params.FoldCount
}

// removeFeatureNames drops names in drop from names. A name that cannot be
// found is reported when Verbose > 0.
func (te *TargetEncoder) removeFeatureNames(names, drop []string) []string {
	out := append([]string(nil), names...)
	for _, d := range drop {
		found := false
		for i, n := range out {
			if n == d {
				out = append(out[:i], out[i+1:]...)
				found = true
				break
			}
		}
		if !found && te.params.Verbose > 0 {
			te.logger.Warn("could not remove column from feature names, not found in generated columns",
				log.ColumnsKey, d,
			)
		}
	}
	return out
}

// invariantColumns returns the encoded columns whose sample variance,
// ignoring NaN, is at most invariantThreshold.
func invariantColumns(out *frame.Frame, columns []string) []string {
	var drop []string
	for _, name := range columns {
		col, ok := out.Column(name)
		if !ok {
			continue
		}
		vals := make([]float64, 0, len(col.Floats))
		for _, v := range col.Floats {
			if !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		if len(vals) < 2 {
			continue
		}
		if stat.Variance(vals, nil) <= invariantThreshold {
			drop = append(drop, name)
		}
	}
	return drop
}

// targetValues copies y after checking its length and values.
func targetValues(op string, n int, y mat.Vector) ([]float64, error) {
	if y.Len() != n {
		return nil, errors.NewDimensionError(op, n, y.Len(), 0)
	}
	ys := make([]float64, n)
	for i := range ys {
		ys[i] = y.AtVec(i)
	}
	if err := errors.CheckNumericalStability("target", ys); err != nil {
		return nil, err
	}
	return ys, nil
}

// columnCodes reads the ordinal codes of column name as integers.
func columnCodes(coded *frame.Frame, name string) []int {
	col, _ := coded.Column(name)
	codes := make([]int, len(col.Floats))
	for i, v := range col.Floats {
		codes[i] = int(v)
	}
	return codes
}

func unknownRows(codes []int) []int {
	var rows []int
	for i, c := range codes {
		if c == UnknownCode {
			rows = append(rows, i)
			if len(rows) == maxReportedRows {
				break
			}
		}
	}
	return rows
}
