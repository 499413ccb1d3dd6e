package magphase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neurlang/magphase/epoch"
	"github.com/neurlang/magphase/phase"
)

// Vocoder analyzes waveforms into parameter sets and synthesizes them back.
// A Vocoder is safe for concurrent use once configured.
type Vocoder struct {
	Config Config
	Epochs epoch.Provider
	Logger *slog.Logger
	// Progress, if set, is called after each frame with the number of frames
	// done so far. It may be called from several goroutines at once.
	Progress func(done, total int)
}

// NewVocoder returns a vocoder using provider for epoch estimation.
func NewVocoder(cfg Config, provider epoch.Provider) *Vocoder {
	return &Vocoder{
		Config: cfg,
		Epochs: provider,
		Logger: slog.Default(),
	}
}

func (v *Vocoder) logger() *slog.Logger {
	if v.Logger == nil {
		return slog.Default()
	}
	return v.Logger
}

func (v *Vocoder) progress(done *atomic.Int64, total int) {
	d := done.Add(1)
	if v.Progress != nil {
		v.Progress(int(d), total)
	}
}

// Analyze estimates epochs for wave with the configured provider and
// analyzes it.
func (v *Vocoder) Analyze(ctx context.Context, wave []float64, sampleRate int) (*ParameterSet, error) {
	if err := checkWave(wave, sampleRate, v.Config); err != nil {
		return nil, err
	}
	if v.Epochs == nil {
		return nil, fmt.Errorf("%w: no epoch provider", ErrInvalidInput)
	}
	epochs, err := v.Epochs.Epochs(ctx, wave, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("magphase: epochs: %w", err)
	}
	return v.AnalyzeEpochs(ctx, wave, sampleRate, epochs)
}

// AnalyzeEpochs analyzes wave using the given epochs.
func (v *Vocoder) AnalyzeEpochs(ctx context.Context, wave []float64, sampleRate int, epochs []epoch.Epoch) (*ParameterSet, error) {
	if err := checkWave(wave, sampleRate, v.Config); err != nil {
		return nil, err
	}
	start := time.Now()
	cfg := v.Config

	f0, err := Contour(len(wave), sampleRate, epochs, cfg)
	if err != nil {
		return nil, err
	}
	grid, err := GridFromF0(f0, sampleRate)
	if err != nil {
		return nil, err
	}
	pool, err := newTransformPool(cfg.Backend, cfg.FFTLen)
	if err != nil {
		return nil, err
	}

	var (
		ps         = NewParameterSet(sampleRate, cfg.FFTLen, grid.Len())
		total      = grid.Len()
		done       atomic.Int64
		clamped    atomic.Int64
		degenerate atomic.Int64
	)
	ps.NumSamples = len(wave)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers())
	for i, f := range grid.Frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t := pool.get()
			defer pool.put(t)

			ph := make([]float64, ps.Bins())
			if AnalyzeFrame(wave, f, t, cfg.FFTLen, ps.Mag[i], ph) {
				clamped.Add(1)
			}
			degenerate.Add(int64(phase.EncodeFrame(ps.Mag[i], ph, f.Offset(), ps.Real[i], ps.Imag[i])))
			v.progress(&done, total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ps.F0 = f0

	logger := v.logger()
	if n := clamped.Load(); n > 0 {
		logger.Warn("frame windows shortened to fit fft_len", "frames", n, "fft_len", cfg.FFTLen)
	}
	logger.Debug("analysis done",
		"samples", len(wave),
		"sample_rate", sampleRate,
		"frames", total,
		"voiced", countVoiced(ps.F0),
		"degenerate_bins", degenerate.Load(),
		"elapsed", time.Since(start),
	)
	return ps, nil
}

// Synthesize rebuilds a waveform from ps.
func (v *Vocoder) Synthesize(ctx context.Context, ps *ParameterSet) ([]float64, error) {
	if ps == nil {
		return nil, fmt.Errorf("%w: nil parameter set", ErrInvalidParameterSet)
	}
	if err := v.Config.validateRuntime(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := ps.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	grid, err := GridFromF0(ps.F0, ps.SampleRate)
	if err != nil {
		return nil, err
	}
	n := ps.FFTLen
	pool, err := newTransformPool(v.Config.Backend, n)
	if err != nil {
		return nil, err
	}

	var (
		segs       = make([][]float64, grid.Len())
		total      = grid.Len()
		done       atomic.Int64
		degenerate atomic.Int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.Config.workers())
	for i, f := range grid.Frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t := pool.get()
			defer pool.put(t)

			bins := ps.Bins()
			mag := make([]float64, bins)
			ph := make([]float64, bins)
			bad := phase.DecodeFrame(ps.Real[i], ps.Imag[i], f.Offset(), ph)
			for k, m := range ps.Mag[i] {
				if m >= 0 && !math.IsInf(m, 1) {
					mag[k] = m
				} else {
					bad++
				}
			}
			degenerate.Add(int64(bad))
			segs[i] = SynthesizeFrame(mag, ph, f, t, n)
			v.progress(&done, total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	samples := grid.Samples()
	if ps.NumSamples > 0 && ps.NumSamples < samples {
		samples = ps.NumSamples
	}
	out := OverlapAdd(grid, segs, n, samples)

	logger := v.logger()
	if d := degenerate.Load(); d > 0 {
		logger.Warn("degenerate bins replaced", "bins", d, "err", ErrNumericDegenerate)
	}
	logger.Debug("synthesis done",
		"frames", total,
		"samples", len(out),
		"elapsed", time.Since(start),
	)
	return out, nil
}

// checkWave validates the analysis inputs.
func checkWave(wave []float64, sampleRate int, cfg Config) error {
	if err := cfg.Validate(sampleRate); err != nil {
		return err
	}
	if len(wave) < MinSamples(sampleRate) {
		return fmt.Errorf("%w: waveform has %d samples, need at least %d", ErrInvalidInput, len(wave), MinSamples(sampleRate))
	}
	for i, s := range wave {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: sample %d is %g", ErrInvalidInput, i, s)
		}
	}
	return nil
}

func countVoiced(f0 []float64) (n int) {
	for _, f := range f0 {
		if f > 0 {
			n++
		}
	}
	return
}
