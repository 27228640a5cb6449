// Package config loads the YAML configuration of the catenc command.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/catenc/pkg/errors"
	"github.com/YuminosukeSato/catenc/preprocessing"
)

// Config is the top-level configuration file.
type Config struct {
	Encoder EncoderConfig `yaml:"encoder"`
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// EncoderConfig mirrors the TargetEncoder options, using scikit-learn names.
type EncoderConfig struct {
	Columns        []string `yaml:"cols,omitempty"`
	HandleMissing  string   `yaml:"handle_missing"`
	HandleUnknown  string   `yaml:"handle_unknown"`
	MinSamplesLeaf float64  `yaml:"min_samples_leaf"`
	Smoothing      float64  `yaml:"smoothing"`
	FoldCount      int      `yaml:"n_folds"`
	Stratified     bool     `yaml:"stratified"`
	DropInvariant  bool     `yaml:"drop_invariant"`
	RandomState    uint64   `yaml:"random_state"`
	Verbose        int      `yaml:"verbose"`
}

// InputConfig describes how input CSV files are read.
type InputConfig struct {
	// Target is the name of the target column.
	Target string `yaml:"target"`
	// Categorical forces columns to be read as categories.
	Categorical []string `yaml:"categorical,omitempty"`
	// Delimiter is the CSV field separator.
	Delimiter string `yaml:"delimiter"`
}

// OutputConfig selects the output writer.
type OutputConfig struct {
	// Format is "csv" or "parquet".
	Format string `yaml:"format"`
	// ParquetWriters is the number of goroutines the parquet writer uses.
	ParquetWriters int64 `yaml:"parquet_writers"`
}

// LoggingConfig configures pkg/log.SetupLogger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Encoder: EncoderConfig{
			HandleMissing:  string(preprocessing.PolicyValue),
			HandleUnknown:  string(preprocessing.PolicyValue),
			MinSamplesLeaf: 1,
			Smoothing:      1.0,
			FoldCount:      1,
		},
		Input: InputConfig{
			Target:    "target",
			Delimiter: ",",
		},
		Output: OutputConfig{
			Format:         "csv",
			ParquetWriters: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "pretty",
		},
	}
}

// Load reads path on top of DefaultConfig. A missing file yields the defaults.
// CATENC_LOG_LEVEL overrides the logging level.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "failed to read config")
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrap(err, "failed to parse config")
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("CATENC_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config")
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := preprocessing.NewTargetEncoder(c.Options()...).Validate(); err != nil {
		return err
	}
	if c.Input.Target == "" {
		return errors.NewValidationError("input.target", "must not be empty", c.Input.Target)
	}
	if len([]rune(c.Input.Delimiter)) != 1 {
		return errors.NewValidationError("input.delimiter", "must be a single character", c.Input.Delimiter)
	}
	switch c.Output.Format {
	case "csv", "parquet":
	default:
		return errors.NewValidationError("output.format", "must be csv or parquet", c.Output.Format)
	}
	if c.Output.ParquetWriters < 1 {
		return errors.NewValidationError("output.parquet_writers", "must be at least 1", c.Output.ParquetWriters)
	}
	return nil
}

// Options converts the encoder section into TargetEncoder options.
func (c *Config) Options() []preprocessing.TargetOption {
	e := c.Encoder
	opts := []preprocessing.TargetOption{
		preprocessing.WithHandleMissing(preprocessing.Policy(e.HandleMissing)),
		preprocessing.WithHandleUnknown(preprocessing.Policy(e.HandleUnknown)),
		preprocessing.WithMinSamplesLeaf(e.MinSamplesLeaf),
		preprocessing.WithSmoothing(e.Smoothing),
		preprocessing.WithFoldCount(e.FoldCount),
		preprocessing.WithStratified(e.Stratified),
		preprocessing.WithDropInvariant(e.DropInvariant),
		preprocessing.WithRandomState(e.RandomState),
		preprocessing.WithVerbose(e.Verbose),
	}
	if len(e.Columns) > 0 {
		opts = append(opts, preprocessing.WithColumns(e.Columns...))
	}
	return opts
}

// Comma returns the input delimiter as a rune.
func (c *Config) Comma() rune {
	return []rune(c.Input.Delimiter)[0]
}
