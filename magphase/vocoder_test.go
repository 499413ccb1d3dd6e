package magphase

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurlang/magphase/epoch"
)

const testRate = 16000

// testPeriod never places an epoch exactly halfway between two samples.
const testPeriod = 100 + 1.0/3

func testConfig() Config {
	cfg := NewConfig()
	cfg.FFTLen = 1024
	cfg.Workers = 4
	return cfg
}

// harmonic returns a band limited pulse-like tone with the given period in
// samples plus a little noise.
func harmonic(n int, period float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	f0 := testRate / period
	x := make([]float64, n)
	for i := range x {
		t := float64(i) / testRate
		for h := 1; h <= 12; h++ {
			x[i] += math.Sin(2*math.Pi*float64(h)*f0*t+0.3*float64(h)) / float64(h)
		}
		x[i] = 0.2*x[i] + 0.01*rng.NormFloat64()
	}
	return x
}

func periodicEpochs(n int, period float64) []epoch.Epoch {
	return epoch.Periodic(period/testRate, float64(n-1)/testRate, period/testRate)
}

func nrmse(want, got []float64) float64 {
	var num, den float64
	for i := range want {
		d := want[i] - got[i]
		num += d * d
		den += want[i] * want[i]
	}
	return math.Sqrt(num / den)
}

func TestRoundTrip(t *testing.T) {
	const n = 8000
	wave := harmonic(n, testPeriod, 1)
	epochs := periodicEpochs(n, testPeriod)

	for _, backend := range []string{BackendGoDSP, BackendGonum} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig()
			cfg.Backend = backend
			v := NewVocoder(cfg, epoch.Static(epochs))

			ps, err := v.Analyze(context.Background(), wave, testRate)
			require.NoError(t, err)
			require.NoError(t, ps.Validate())

			out, err := v.Synthesize(context.Background(), ps)
			require.NoError(t, err)
			require.Len(t, out, n)
			assert.Less(t, nrmse(wave, out), 1e-6)
		})
	}
}

func TestRoundTripMixedVoicing(t *testing.T) {
	const n = 9600
	rng := rand.New(rand.NewSource(7))
	wave := harmonic(n, testPeriod, 3)
	for i := range wave {
		if i < 2000 || i > 6000 {
			wave[i] = 0.05 * rng.NormFloat64()
		}
	}
	var epochs []epoch.Epoch
	for pos := 2003.7; pos < 6000; pos += testPeriod {
		epochs = append(epochs, epoch.Epoch{Time: pos / testRate, Voiced: true})
	}
	epochs = append(epochs, epoch.Epoch{Time: 6100.0 / testRate})

	v := NewVocoder(testConfig(), epoch.Static(epochs))

	ps, err := v.Analyze(context.Background(), wave, testRate)
	require.NoError(t, err)

	out, err := v.Synthesize(context.Background(), ps)
	require.NoError(t, err)
	require.Len(t, out, n)
	assert.Less(t, nrmse(wave, out), 1e-6)
}

func TestRoundTripDefaultConfig(t *testing.T) {
	const (
		n      = 12000
		period = 110.0
	)
	rng := rand.New(rand.NewSource(13))
	wave := harmonic(n, period, 4)
	var epochs []epoch.Epoch
	for pos := 1517.29; pos < 9000; pos += period + 3*rng.NormFloat64() {
		epochs = append(epochs, epoch.Epoch{Time: pos / testRate, Voiced: true})
	}
	epochs = append(epochs, epoch.Epoch{Time: 9050.0 / testRate})
	for pos := 9400.0; pos < 11000; pos += 150 + 3*rng.NormFloat64() {
		epochs = append(epochs, epoch.Epoch{Time: pos / testRate, Voiced: true})
	}

	cfg := NewConfig()
	require.True(t, cfg.SmoothF0)
	v := NewVocoder(cfg, epoch.Static(epochs))

	ps, err := v.Analyze(context.Background(), wave, testRate)
	require.NoError(t, err)

	var onsets int
	for i, f := range ps.F0 {
		if f == 0 {
			continue
		}
		assert.GreaterOrEqual(t, f, cfg.MinF0)
		assert.LessOrEqual(t, f, cfg.MaxF0)
		if i == 0 || ps.F0[i-1] == 0 {
			onsets++
			assert.True(t, math.Abs(f-testRate/period) < 30 || math.Abs(f-testRate/150.0) < 30,
				"onset F0 %g at frame %d", f, i)
		}
	}
	assert.Equal(t, 2, onsets)

	out, err := v.Synthesize(context.Background(), ps)
	require.NoError(t, err)
	require.Len(t, out, n)
	assert.Less(t, nrmse(wave, out), 1e-6)
}

func TestAnalyzeStreams(t *testing.T) {
	const n = 6000
	wave := harmonic(n, testPeriod, 2)
	v := NewVocoder(testConfig(), epoch.Static(periodicEpochs(n, testPeriod)))

	ps, err := v.Analyze(context.Background(), wave, testRate)
	require.NoError(t, err)

	assert.Equal(t, testRate, ps.SampleRate)
	assert.Equal(t, 1024, ps.FFTLen)
	assert.Equal(t, n, ps.NumSamples)
	assert.Equal(t, 513, ps.Bins())
	require.Equal(t, ps.Frames(), len(ps.Mag))

	var voiced int
	for i := 0; i < ps.Frames(); i++ {
		require.Len(t, ps.Mag[i], 513)
		for k := range ps.Mag[i] {
			assert.GreaterOrEqual(t, ps.Mag[i][k], 0.0)
			r, im := ps.Real[i][k], ps.Imag[i][k]
			assert.InDelta(t, 1, r*r+im*im, 1e-9)
		}
		if ps.F0[i] > 0 {
			voiced++
			assert.InDelta(t, testRate/testPeriod, ps.F0[i], 1e-6)
		}
	}
	assert.Equal(t, len(periodicEpochs(n, testPeriod)), voiced)
	assert.Equal(t, 0.0, ps.F0[0])
}

func TestSilence(t *testing.T) {
	wave := make([]float64, 3200)
	v := NewVocoder(testConfig(), epoch.Static(nil))

	ps, err := v.Analyze(context.Background(), wave, testRate)
	require.NoError(t, err)
	for i := range ps.F0 {
		assert.Equal(t, 0.0, ps.F0[i])
		for k := range ps.Mag[i] {
			assert.Equal(t, 0.0, ps.Mag[i][k])
			assert.Equal(t, 1.0, ps.Real[i][k])
			assert.Equal(t, 0.0, ps.Imag[i][k])
		}
	}

	out, err := v.Synthesize(context.Background(), ps)
	require.NoError(t, err)
	require.Len(t, out, len(wave))
	for _, s := range out {
		assert.Equal(t, 0.0, s)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	ctx := context.Background()
	good := harmonic(2000, testPeriod, 1)

	tests := map[string]struct {
		cfg  func(*Config)
		wave []float64
		rate int
		nop  bool
	}{
		"short wave":   {wave: make([]float64, 100), rate: testRate},
		"nan sample":   {wave: append([]float64{math.NaN()}, good...), rate: testRate},
		"zero rate":    {wave: good, rate: 0},
		"fft not pow2": {cfg: func(c *Config) { c.FFTLen = 1000 }, wave: good, rate: testRate},
		"fft small":    {cfg: func(c *Config) { c.FFTLen = 256 }, wave: good, rate: testRate},
		"empty range":  {cfg: func(c *Config) { c.MaxF0 = c.MinF0 }, wave: good, rate: testRate},
		"even smooth":  {cfg: func(c *Config) { c.SmoothLen = 4 }, wave: good, rate: testRate},
		"bad backend":  {cfg: func(c *Config) { c.Backend = "fftw" }, wave: good, rate: testRate},
		"no provider":  {wave: good, rate: testRate, nop: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			if tc.cfg != nil {
				tc.cfg(&cfg)
			}
			v := NewVocoder(cfg, epoch.Static(nil))
			if tc.nop {
				v.Epochs = nil
			}
			_, err := v.Analyze(ctx, tc.wave, tc.rate)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestAnalyzeRejectsBadEpochs(t *testing.T) {
	v := NewVocoder(testConfig(), epoch.Static{{Time: 0.05, Voiced: true}, {Time: 0.01, Voiced: true}})
	_, err := v.Analyze(context.Background(), harmonic(2000, testPeriod, 1), testRate)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, epoch.ErrInvalidEpochs)
}

func TestAnalyzeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v := NewVocoder(testConfig(), epoch.Static(nil))
	_, err := v.AnalyzeEpochs(ctx, harmonic(4000, testPeriod, 1), testRate, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSynthesizeErrors(t *testing.T) {
	v := NewVocoder(testConfig(), nil)
	ctx := context.Background()

	_, err := v.Synthesize(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidParameterSet)

	ps := NewParameterSet(testRate, 1024, 3)
	ps.F0[1] = -5
	_, err = v.Synthesize(ctx, ps)
	assert.ErrorIs(t, err, ErrInvalidParameterSet)

	ps = NewParameterSet(testRate, 1024, 3)
	ps.Mag = ps.Mag[:2]
	_, err = v.Synthesize(ctx, ps)
	assert.ErrorIs(t, err, ErrInvalidParameterSet)

	ps = NewParameterSet(testRate, 1024, 3)
	ps.Imag[2] = ps.Imag[2][:10]
	_, err = v.Synthesize(ctx, ps)
	assert.ErrorIs(t, err, ErrInvalidParameterSet)

	_, err = v.Synthesize(ctx, NewParameterSet(testRate, 1024, 0))
	assert.ErrorIs(t, err, ErrInvalidParameterSet)
}

func TestSynthesizeToleratesDegenerateBins(t *testing.T) {
	const n = 4000
	v := NewVocoder(testConfig(), epoch.Static(periodicEpochs(n, testPeriod)))
	ps, err := v.Analyze(context.Background(), harmonic(n, testPeriod, 5), testRate)
	require.NoError(t, err)

	ps.Real[3][7], ps.Imag[3][7] = 0, 0
	ps.Real[4][9] = math.NaN()
	ps.Mag[5][11] = math.Inf(1)

	out, err := v.Synthesize(context.Background(), ps)
	require.NoError(t, err)
	for _, s := range out {
		assert.False(t, math.IsNaN(s) || math.IsInf(s, 0))
	}
}

func TestProgress(t *testing.T) {
	const n = 3200
	v := NewVocoder(testConfig(), epoch.Static(nil))
	var calls, last int
	v.Config.Workers = 1
	v.Progress = func(done, total int) {
		calls++
		last = done
		assert.LessOrEqual(t, done, total)
	}
	ps, err := v.Analyze(context.Background(), make([]float64, n), testRate)
	require.NoError(t, err)
	assert.Equal(t, ps.Frames(), calls)
	assert.Equal(t, ps.Frames(), last)
}

func TestPitchScaleKeepsVoicing(t *testing.T) {
	const n = 8000
	v := NewVocoder(testConfig(), epoch.Static(periodicEpochs(n, testPeriod)))
	ps, err := v.Analyze(context.Background(), harmonic(n, testPeriod, 9), testRate)
	require.NoError(t, err)

	scaled := ps.Clone()
	require.NoError(t, scaled.ScaleF0(1.25))
	for i := range ps.F0 {
		assert.InDelta(t, ps.F0[i]*1.25, scaled.F0[i], 1e-9)
	}

	out, err := v.Synthesize(context.Background(), scaled)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.LessOrEqual(t, len(out), n)
}
