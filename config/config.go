// Package config loads the magphase YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/neurlang/magphase/audio"
	"github.com/neurlang/magphase/epoch"
	"github.com/neurlang/magphase/magphase"
	"github.com/neurlang/magphase/paramio"
)

// LogLevel is a slog level name.
type LogLevel string

// IsValid reports whether l names a known level.
func (l LogLevel) IsValid() bool {
	return slices.Contains([]LogLevel{"debug", "info", "warn", "error"}, l)
}

// Level returns the slog level, info for unknown names.
func (l LogLevel) Level() slog.Level {
	switch l {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Epoch providers.
const (
	ProviderTracker = "tracker"
	ProviderReaper  = "reaper"
	ProviderEst     = "est"
)

// Config is the top level configuration file.
type Config struct {
	LogLevel LogLevel        `yaml:"log_level"`
	Vocoder  magphase.Config `yaml:"vocoder"`
	Epochs   EpochsConfig    `yaml:"epochs"`
	Output   OutputConfig    `yaml:"output"`
}

// EpochsConfig selects and tunes the epoch provider.
type EpochsConfig struct {
	Provider  string  `yaml:"provider"`
	ReaperBin string  `yaml:"reaper_bin"`
	EstFile   string  `yaml:"est_file"`
	SilenceDB float64 `yaml:"silence_db"`
}

// OutputConfig controls written files.
type OutputConfig struct {
	Precision string `yaml:"precision"`
	BitDepth  int    `yaml:"bit_depth"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Vocoder:  magphase.NewConfig(),
		Epochs: EpochsConfig{
			Provider:  ProviderTracker,
			ReaperBin: epoch.DefaultReaperBinary,
			SilenceDB: epoch.NewTracker().SilenceDB,
		},
		Output: OutputConfig{
			Precision: paramio.Float32.String(),
			BitDepth:  audio.DefaultBitDepth,
		},
	}
}

// Load reads the YAML configuration file at path on top of Default and
// validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over the defaults and
// validates it. Unknown keys are an error.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if err := cfg.Vocoder.Check(); err != nil {
		errs = append(errs, fmt.Errorf("vocoder: %w", err))
	}

	switch cfg.Epochs.Provider {
	case ProviderTracker, ProviderReaper:
	case ProviderEst:
		if cfg.Epochs.EstFile == "" {
			errs = append(errs, errors.New("epochs.est_file is required for provider est"))
		}
	default:
		errs = append(errs, fmt.Errorf("epochs.provider %q is invalid; valid values: tracker, reaper, est", cfg.Epochs.Provider))
	}
	if cfg.Epochs.SilenceDB > 0 {
		errs = append(errs, fmt.Errorf("epochs.silence_db %g must not be positive", cfg.Epochs.SilenceDB))
	}

	if _, err := paramio.ParsePrecision(cfg.Output.Precision); err != nil {
		errs = append(errs, fmt.Errorf("output.precision: %w", err))
	}
	if !slices.Contains([]int{8, 16, 24}, cfg.Output.BitDepth) {
		errs = append(errs, fmt.Errorf("output.bit_depth %d is invalid; valid values: 8, 16, 24", cfg.Output.BitDepth))
	}

	return errors.Join(errs...)
}

// Provider builds the configured epoch provider.
func (cfg *Config) Provider(logger *slog.Logger) (epoch.Provider, error) {
	switch cfg.Epochs.Provider {
	case ProviderTracker:
		t := epoch.NewTracker()
		t.MinF0 = cfg.Vocoder.MinF0
		t.MaxF0 = cfg.Vocoder.MaxF0
		t.SilenceDB = cfg.Epochs.SilenceDB
		t.Logger = logger
		return t, nil
	case ProviderReaper:
		return epoch.Reaper{Binary: cfg.Epochs.ReaperBin, Logger: logger}, nil
	case ProviderEst:
		return epoch.EstFile(cfg.Epochs.EstFile), nil
	}
	return nil, fmt.Errorf("config: unknown epoch provider %q", cfg.Epochs.Provider)
}
