package model

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/catenc/pkg/errors"
)

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("TargetEncoder", "Transform")
	var notFitted *errors.NotFittedError
	require.True(t, errors.As(err, &notFitted))
	assert.Equal(t, "Transform", notFitted.Method)

	s.SetDimensions(3, 100)
	s.SetFitted()
	assert.NoError(t, s.RequireFitted("TargetEncoder", "Transform"))

	nFeatures, nSamples := s.GetDimensions()
	assert.Equal(t, 3, nFeatures)
	assert.Equal(t, 100, nSamples)
	assert.Equal(t, ModelState{Fitted: true, NFeatures: 3, NSamples: 100}, s.GetState())

	s.Reset()
	assert.Equal(t, ModelState{}, s.GetState())

	s.SetState(ModelState{Fitted: true, NFeatures: 1})
	assert.True(t, s.IsFitted())
}

func TestStateManagerConcurrentReaders(t *testing.T) {
	s := NewStateManager()
	s.SetFitted()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithState(func() error {
				assert.True(t, s.Fitted)
				return nil
			})
		}()
	}
	wg.Wait()

	require.NoError(t, s.WithStateMut(func() error {
		s.NSamples = 7
		return nil
	}))
	_, nSamples := s.GetDimensions()
	assert.Equal(t, 7, nSamples)
}

type sampleState struct {
	Prior   float64
	Columns []string
	Counts  map[int]int
}

func TestSnapshotRoundTrip(t *testing.T) {
	in := sampleState{Prior: 0.5, Columns: []string{"color"}, Counts: map[int]int{1: 8, 2: 2}}

	var buf bytes.Buffer
	require.NoError(t, SaveModelToWriter("TargetEncoder", in, &buf))

	var out sampleState
	require.NoError(t, LoadModelFromReader("TargetEncoder", &out, bytes.NewReader(buf.Bytes())))
	assert.Equal(t, in, out)

	err := LoadModelFromReader("OrdinalEncoder", &out, bytes.NewReader(buf.Bytes()))
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))
}

func TestSnapshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encoder.gob")
	in := sampleState{Prior: 0.25}

	require.NoError(t, SaveModel("TargetEncoder", in, path))

	var out sampleState
	require.NoError(t, LoadModel("TargetEncoder", &out, path))
	assert.Equal(t, in.Prior, out.Prior)

	assert.Error(t, LoadModel("TargetEncoder", &out, filepath.Join(t.TempDir(), "missing.gob")))
}

func TestLoadRejectsGarbage(t *testing.T) {
	var out sampleState
	assert.Error(t, LoadModelFromReader("TargetEncoder", &out, bytes.NewReader([]byte("not gob"))))
}
