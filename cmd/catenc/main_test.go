package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/catenc/core/frame"
	"github.com/YuminosukeSato/catenc/internal/dataio"
	"github.com/YuminosukeSato/catenc/pkg/errors"
)

const trainCSV = `city,rooms,target
tokyo,1,1
tokyo,2,1
tokyo,3,0
osaka,1,0
osaka,2,0
kyoto,3,1
tokyo,1,1
osaka,2,1
`

const testCSV = `city,rooms
tokyo,1
nagoya,2
osaka,3
`

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFitTransformInspect(t *testing.T) {
	dir := t.TempDir()
	train := writeInput(t, dir, "train.csv", trainCSV)
	test := writeInput(t, dir, "test.csv", testCSV)
	modelPath := filepath.Join(dir, "encoder.gob")

	_, stderr, err := run(t, "fit", "-i", train, "-m", modelPath, "--smoothing", "2", "--log-format", "json")
	require.NoError(t, err)
	assert.Contains(t, stderr, "encoder fitted")
	assert.Contains(t, stderr, `"encoder.columns":"city"`)

	stdout, _, err := run(t, "transform", "-m", modelPath, "-i", test)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "city,rooms", lines[0])

	// nagoya was not seen during fit and falls back to the prior.
	assert.Equal(t, "0.625,2", lines[2])

	plotDir := t.TempDir()
	stdout, _, err = run(t, "inspect", "-m", modelPath, "--plot-dir", plotDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "prior")
	assert.Contains(t, stdout, "column city")
	assert.Contains(t, stdout, "tokyo")

	_, err = os.Stat(filepath.Join(plotDir, "city.png"))
	assert.NoError(t, err)
}

func TestTransformKeepsTarget(t *testing.T) {
	dir := t.TempDir()
	train := writeInput(t, dir, "train.csv", trainCSV)
	modelPath := filepath.Join(dir, "encoder.gob")

	_, _, err := run(t, "fit", "-i", train, "-m", modelPath, "-k", "2", "-x", "7")
	require.NoError(t, err)

	stdout, _, err := run(t, "transform", "-m", modelPath, "-i", train, "--use-target")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "city,rooms,target", lines[0])
}

func TestFitTransformCommand(t *testing.T) {
	dir := t.TempDir()
	train := writeInput(t, dir, "train.csv", trainCSV)
	test := writeInput(t, dir, "test.csv", testCSV)
	trainOut := filepath.Join(dir, "train_enc.csv")
	testOut := filepath.Join(dir, "test_enc.parquet")
	modelPath := filepath.Join(dir, "encoder.gob")

	_, stderr, err := run(t, "fit-transform",
		"-i", train, "-o", trainOut,
		"--test-file", test, "--test-output", testOut,
		"-m", modelPath, "-k", "4", "--stratified", "-x", "3",
		"--score", "--log-format", "json",
	)
	require.NoError(t, err)
	assert.Contains(t, stderr, "encoding score")

	encoded, err := dataio.ReadFile(trainOut, frame.CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, 8, encoded.NRows())
	assert.Equal(t, []string{"city", "rooms", "target"}, encoded.Names())
	city, _ := encoded.Column("city")
	assert.Equal(t, frame.Numeric, city.Kind)

	info, err := os.Stat(testOut)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, err = os.Stat(modelPath)
	assert.NoError(t, err)
}

func TestFitTransformNeedsTestOutput(t *testing.T) {
	dir := t.TempDir()
	train := writeInput(t, dir, "train.csv", trainCSV)
	test := writeInput(t, dir, "test.csv", testCSV)

	_, _, err := run(t, "fit-transform", "-i", train, "--test-file", test)
	var valErr *errors.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "test-output", valErr.ParamName)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	train := writeInput(t, dir, "train.csv", strings.ReplaceAll(trainCSV, "target", "label"))
	cfgPath := writeInput(t, dir, "catenc.yaml", `
encoder:
  smoothing: 3
  min_samples_leaf: 2
input:
  target: label
logging:
  level: debug
  format: json
`)
	modelPath := filepath.Join(dir, "encoder.gob")

	_, stderr, err := run(t, "--config", cfgPath, "fit", "-i", train, "-m", modelPath)
	require.NoError(t, err)
	assert.Contains(t, stderr, `"level":"debug"`)

	// command line flags win over the file.
	_, _, err = run(t, "--config", cfgPath, "fit", "-i", train, "-m", modelPath, "-t", "target")
	var valErr *errors.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "target", valErr.ParamName)
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	train := writeInput(t, dir, "train.csv", trainCSV)
	modelPath := filepath.Join(dir, "encoder.gob")

	tests := []struct {
		name string
		args []string
	}{
		{"missing required flag", []string{"fit", "-i", train}},
		{"invalid smoothing", []string{"fit", "-i", train, "-m", modelPath, "--smoothing", "0"}},
		{"invalid policy", []string{"fit", "-i", train, "-m", modelPath, "--handle-unknown", "ignore"}},
		{"invalid log level", []string{"--log-level", "trace", "fit", "-i", train, "-m", modelPath}},
		{"absent input", []string{"fit", "-i", filepath.Join(dir, "absent.csv"), "-m", modelPath}},
		{"absent model", []string{"inspect", "-m", filepath.Join(dir, "absent.gob")}},
		{"transform without target", []string{"transform", "-m", modelPath, "-i", train, "--use-target", "-t", "price"}},
	}

	_, _, err := run(t, "fit", "-i", train, "-m", modelPath)
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
