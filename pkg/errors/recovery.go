package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// PanicError はエンコーダ内部で回復されたパニックを表します。
// Operation はパニックを回復した公開メソッド名です（例: "TargetEncoder.Fit"）。
type PanicError struct {
	Operation string
	Value     interface{}
	Stack     []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("catenc: panic in %s: %v", e.Operation, e.Value)
}

// Unwrap はパニック値が error（runtime.Error など）の場合にそれを返します。
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *PanicError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Str("panic", fmt.Sprint(e.Value)).
		Bytes("stack", e.Stack).
		Str("type", "PanicError")
}

// NewPanicError は現在のゴルーチンのスタックを記録した PanicError を作成します。
func NewPanicError(operation string, value interface{}) *PanicError {
	return &PanicError{Operation: operation, Value: value, Stack: debug.Stack()}
}

// Recover は名前付き戻り値 err を持つ関数で defer して使います。
// パニックを PanicError に変換して *err に設定します。既に *err が
// 設定されていた場合は、そのエラーを副次エラーとして添付します。
//
//	func (te *TargetEncoder) Fit(X *frame.Frame, y mat.Vector) (err error) {
//	    defer errors.Recover(&err, "TargetEncoder.Fit")
//	    ...
//	}
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	panicErr := NewPanicError(operation, r)
	if *err != nil {
		*err = errors.WithSecondaryError(panicErr, *err)
		return
	}
	*err = panicErr
}

// SafeExecute は fn を実行し、パニックを PanicError として返します。
// 別ゴルーチンで起きたパニックは呼び出し元の Recover に届かないため、
// ワーカー関数はこれで包みます。
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
