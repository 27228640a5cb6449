package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/catenc/pkg/errors"
)

func TestTestLogger(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationFit)
	testLogger.Warn("warning message", "warning_code", "FOLD_IMBALANCE")
	testLogger.Error("error message", fmt.Errorf("boom"), ErrorCodeKey, ErrorUnknownCategory)

	require.NotEmpty(t, buffer.String())
	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		assert.True(t, testLogger.ContainsMessage(msg), msg)
	}
	assert.True(t, testLogger.ContainsField("key1", "value1"))
	assert.True(t, testLogger.ContainsField("number", 42.0))
	assert.True(t, testLogger.ContainsField(ErrAttrKey, "boom"))
	assert.True(t, testLogger.ContainsField(ErrorCodeKey, ErrorUnknownCategory))

	entries, err := testLogger.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestTestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	child := testLogger.With(ModelNameKey, "TargetEncoder", EstimatorIDKey, "te-001")
	child.Info("fit completed", SamplesKey, 10)

	assert.True(t, testLogger.ContainsField(ModelNameKey, "TargetEncoder"))
	assert.True(t, testLogger.ContainsField(EstimatorIDKey, "te-001"))
	assert.True(t, testLogger.ContainsField(SamplesKey, 10.0))
}

func TestTestLoggerLevelFiltering(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelWarn)

	testLogger.Debug("hidden")
	testLogger.Info("hidden too")
	testLogger.Warn("shown")

	assert.False(t, testLogger.ContainsMessage("hidden"))
	assert.True(t, testLogger.ContainsMessage("shown"))
	assert.False(t, testLogger.Enabled(context.Background(), LevelInfo))
	assert.True(t, testLogger.Enabled(context.Background(), LevelError))

	testLogger.Clear()
	assert.Empty(t, testLogger.String())
}

func TestTestLoggerProvider(t *testing.T) {
	provider, captured := NewTestLoggerProvider(LevelInfo)
	SetProvider(provider)
	defer SetProvider(NewZerologProvider(zerologDiscard()))

	GetLoggerWithName("preprocessing.target").Debug("dropped")
	GetLoggerWithName("preprocessing.target").Info("kept")

	assert.False(t, captured.ContainsMessage("dropped"))
	assert.True(t, captured.ContainsField(ComponentKey, "preprocessing.target"))

	provider.SetLevel(LevelDebug)
	GetLogger().Debug("now visible")
	assert.True(t, captured.ContainsMessage("now visible"))
}

func TestSetupLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetupLoggerTo(&buf, "debug", "json"))
	defer func() { _ = SetupLoggerTo(&bytes.Buffer{}, "info", "json") }()

	logger := GetLoggerWithName("preprocessing.ordinal").With(ModelNameKey, "OrdinalEncoder")
	logger.Info("fit completed", SamplesKey, 3, ColumnsKey, []string{"color"})
	logger.Error("fit failed", errors.New("bad input"), OperationKey, OperationFit)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "fit completed", first["message"])
	assert.Equal(t, "preprocessing.ordinal", first[ComponentKey])
	assert.Equal(t, "OrdinalEncoder", first[ModelNameKey])
	assert.Equal(t, 3.0, first[SamplesKey])

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "error", second["level"])
	assert.Equal(t, "bad input", second[ErrAttrKey])
}

func TestSetupLoggerRoutesWarnings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetupLoggerTo(&buf, "info", "json"))
	defer func() { _ = SetupLoggerTo(&bytes.Buffer{}, "info", "json") }()

	errors.Warn(errors.NewFoldImbalanceWarning(1, 2, 5))

	assert.Contains(t, buf.String(), "n_splits=5")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestSetupLoggerRejectsBadInput(t *testing.T) {
	assert.Error(t, SetupLoggerTo(&bytes.Buffer{}, "verbose", "json"))
	assert.Error(t, SetupLoggerTo(&bytes.Buffer{}, "info", "xml"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, strings.ToUpper(tt.in), got.String())
		})
	}
}

func zerologDiscard() zerolog.Logger {
	return zerolog.Nop()
}
