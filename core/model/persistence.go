package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/catenc/pkg/errors"
)

// SnapshotVersion はスナップショット形式のバージョン
const SnapshotVersion = 1

const snapshotFormat = "catenc/gob"

// snapshotHeader はペイロードの前に書き込まれ、読み込み時に形式とモデル種別を検証する
type snapshotHeader struct {
	Format  string
	Version int
	Model   string
}

// SaveModel はモデルをファイルに保存する
//
// 使用例:
//
//	err := model.SaveModel("TargetEncoder", snapshot, "encoder.gob")
func SaveModel(name string, state interface{}, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close file")
		}
	}()

	return SaveModelToWriter(name, state, file)
}

// LoadModel はファイルからモデルを読み込む
//
// 使用例:
//
//	var snapshot targetSnapshot
//	err := model.LoadModel("TargetEncoder", &snapshot, "encoder.gob")
func LoadModel(name string, state interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return LoadModelFromReader(name, state, file)
}

// SaveModelToWriter はヘッダとモデルをio.Writerに保存する
func SaveModelToWriter(name string, state interface{}, w io.Writer) error {
	encoder := gob.NewEncoder(w)
	header := snapshotHeader{Format: snapshotFormat, Version: SnapshotVersion, Model: name}
	if err := encoder.Encode(header); err != nil {
		return errors.Wrap(err, "failed to encode snapshot header")
	}
	if err := encoder.Encode(state); err != nil {
		return errors.Wrapf(err, "failed to encode %s", name)
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
// ヘッダの形式・バージョン・モデル名が一致しない場合はエラーを返す
func LoadModelFromReader(name string, state interface{}, r io.Reader) error {
	decoder := gob.NewDecoder(r)

	var header snapshotHeader
	if err := decoder.Decode(&header); err != nil {
		return errors.Wrap(err, "failed to decode snapshot header")
	}
	if header.Format != snapshotFormat {
		return errors.NewValueError("LoadModel", "not a catenc snapshot")
	}
	if header.Version != SnapshotVersion {
		return errors.NewValidationError("version", "unsupported snapshot version", header.Version)
	}
	if header.Model != name {
		return errors.NewValueError("LoadModel", "snapshot holds a "+header.Model+", not a "+name)
	}

	if err := decoder.Decode(state); err != nil {
		return errors.Wrapf(err, "failed to decode %s", name)
	}
	return nil
}
