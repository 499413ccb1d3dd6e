package magphase

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/mjibson/go-dsp/dsputils"
)

// UnvoicedPeriod is the frame spacing in seconds outside voiced regions.
const UnvoicedPeriod = 0.005

// FFT backends.
const (
	BackendGoDSP = "godsp"
	BackendGonum = "gonum"
)

// Config holds the analysis and synthesis settings.
type Config struct {
	// FFTLen is the transform length, a power of two. Spectra have FFTLen/2+1 bins.
	FFTLen int `yaml:"fft_len" mapstructure:"fft_len"`

	// MinF0 and MaxF0 bound the pitch periods accepted from the epoch provider.
	MinF0 float64 `yaml:"min_f0" mapstructure:"min_f0"`
	MaxF0 float64 `yaml:"max_f0" mapstructure:"max_f0"`

	// SmoothF0 applies a median filter of SmoothLen frames within voiced runs.
	SmoothF0  bool `yaml:"smooth_f0" mapstructure:"smooth_f0"`
	SmoothLen int  `yaml:"smooth_len" mapstructure:"smooth_len"`

	// Backend selects the FFT implementation, BackendGoDSP or BackendGonum.
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Workers bounds per-frame concurrency. Zero means GOMAXPROCS.
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// NewConfig returns the default configuration.
func NewConfig() Config {
	return Config{
		FFTLen:    4096,
		MinF0:     60,
		MaxF0:     500,
		SmoothF0:  true,
		SmoothLen: 5,
		Backend:   BackendGoDSP,
	}
}

// Hop returns the unvoiced frame spacing in samples.
func Hop(sampleRate int) float64 {
	return float64(sampleRate) / (1 / UnvoicedPeriod)
}

// MinSamples returns the shortest waveform analysis accepts: two unvoiced hops.
func MinSamples(sampleRate int) int {
	return int(math.Ceil(2 * Hop(sampleRate)))
}

// Check validates the settings that do not depend on the sample rate.
func (c Config) Check() error {
	var errs []error
	if c.FFTLen < 4 || !dsputils.IsPowerOf2(c.FFTLen) {
		errs = append(errs, fmt.Errorf("fft_len %d is not a power of two >= 4", c.FFTLen))
	}
	if !(c.MinF0 > 0) || math.IsInf(c.MinF0, 0) || !(c.MaxF0 > c.MinF0) || math.IsInf(c.MaxF0, 0) {
		errs = append(errs, fmt.Errorf("F0 range [%g, %g] is empty", c.MinF0, c.MaxF0))
	}
	if c.SmoothF0 && (c.SmoothLen < 1 || c.SmoothLen%2 == 0) {
		errs = append(errs, fmt.Errorf("smooth_len %d is not a positive odd number", c.SmoothLen))
	}
	if err := c.validateRuntime(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// Validate checks c for use at sampleRate, including that FFTLen holds the
// longest frame the grid can produce.
func (c Config) Validate(sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d is not positive", ErrInvalidInput, sampleRate)
	}
	if err := c.Check(); err != nil {
		return err
	}
	longest := math.Max(float64(sampleRate)/c.MinF0, 1.5*Hop(sampleRate))
	if need := 2 * (int(math.Ceil(longest)) + 1); c.FFTLen <= need {
		return fmt.Errorf("%w: fft_len %d cannot hold a %d sample frame at %d Hz", ErrInvalidInput, c.FFTLen, need, sampleRate)
	}
	return nil
}

// validateRuntime checks the settings synthesis depends on.
func (c Config) validateRuntime() error {
	var errs []error
	if c.Backend != BackendGoDSP && c.Backend != BackendGonum {
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d is negative", c.Workers))
	}
	return errors.Join(errs...)
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}
