package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/catenc/core/frame"
)

// FrameTransformer は教師なしで表データを変換するインターフェース
type FrameTransformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X *frame.Frame) error

	// Transform はデータを変換する
	Transform(X *frame.Frame) (*frame.Frame, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X *frame.Frame) (*frame.Frame, error)
}

// SupervisedTransformer は目的変数を使って変換を学習するインターフェース
type SupervisedTransformer interface {
	// Fit は特徴量と目的変数から変換を学習する
	Fit(X *frame.Frame, y mat.Vector) error

	// Transform はデータを変換する。y は nil でもよい
	Transform(X *frame.Frame, y mat.Vector) (mat.Matrix, error)

	// FitTransform はFitとTransformを同じ目的変数で実行する
	FitTransform(X *frame.Frame, y mat.Vector) (mat.Matrix, error)
}

// FeatureNamer は変換後の列名を返すインターフェース
type FeatureNamer interface {
	// FeatureNames は出力列の名前を返す
	FeatureNames() ([]string, error)
}
