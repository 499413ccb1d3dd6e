package epoch

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/RyanBlaney/sonido-sonar/algorithms/tonal"
	"github.com/r9y9/gossp/stft"
)

// Tracker is the built-in epoch provider. It estimates F0 on a fixed hop with
// YIN, gates silence by STFT frame energy, and then places one mark per
// period on the waveform peak nearest the predicted position.
type Tracker struct {
	MinF0 float64
	MaxF0 float64
	// Hop is the F0 tracking step in seconds.
	Hop float64
	// SilenceDB gates frames quieter than the loudest frame by this many dB.
	SilenceDB float64

	Logger *slog.Logger
}

// NewTracker returns a tracker with speech defaults.
func NewTracker() *Tracker {
	return &Tracker{
		MinF0:     60,
		MaxF0:     500,
		Hop:       0.005,
		SilenceDB: -45,
	}
}

// Epochs tracks F0 over wave and converts it to pitch marks.
func (t *Tracker) Epochs(ctx context.Context, wave []float64, sampleRate int) ([]Epoch, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("epoch: tracker: sample rate %d", sampleRate)
	}
	if !(t.MinF0 > 0) || t.MaxF0 <= t.MinF0 {
		return nil, fmt.Errorf("epoch: tracker: bad F0 range [%g, %g]", t.MinF0, t.MaxF0)
	}
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fs := float64(sampleRate)
	hop := int(math.Round(t.Hop * fs))
	if hop < 1 {
		hop = 1
	}
	window := t.windowSize(sampleRate)

	f0, err := t.track(ctx, wave, sampleRate, hop, window)
	if err != nil {
		return nil, err
	}

	track := func(pos float64) float64 {
		j := int(math.Round((pos - float64(window)/2) / float64(hop)))
		if j < 0 {
			j = 0
		}
		if j >= len(f0) {
			j = len(f0) - 1
		}
		if j < 0 {
			return 0
		}
		return f0[j]
	}
	epochs := place(wave, track, float64(hop), fs)
	logger.Debug("tracked epochs", "frames", len(f0), "epochs", len(epochs), "voiced", VoicedCount(epochs))
	return epochs, nil
}

// windowSize covers two periods of the lowest F0, rounded up to a power of two.
func (t *Tracker) windowSize(sampleRate int) int {
	need := int(math.Ceil(2 * float64(sampleRate) / t.MinF0))
	size := 256
	for size < need {
		size <<= 1
	}
	return size
}

// track returns one F0 value per hop, frame i starting at sample i*hop.
// Unvoiced and silent frames are 0.
func (t *Tracker) track(ctx context.Context, wave []float64, sampleRate, hop, window int) ([]float64, error) {
	padded := make([]float64, len(wave)+window)
	copy(padded, wave)

	spectrum := stft.New(hop, window).STFT(padded)
	energy := make([]float64, len(spectrum))
	var loudest float64
	for i, frame := range spectrum {
		for _, v := range frame {
			energy[i] += real(v)*real(v) + imag(v)*imag(v)
		}
		loudest = math.Max(loudest, energy[i])
	}
	gate := loudest * math.Pow(10, t.SilenceDB/10)

	params := tonal.NewPitchDetector(sampleRate).GetParameters()
	params.WindowSize = window
	params.HopSize = hop
	params.MinFreq = t.MinF0
	params.MaxFreq = t.MaxF0
	detector := tonal.NewPitchDetectorWithParams(params)

	f0 := make([]float64, len(energy))
	for i := range f0 {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if !(energy[i] > gate) || i*hop+window > len(padded) {
			continue
		}
		res, err := detector.DetectPitch(padded[i*hop : i*hop+window])
		if err != nil {
			return nil, fmt.Errorf("epoch: tracker: frame %d: %w", i, err)
		}
		if res.Voicing > 0 && res.Pitch >= t.MinF0 && res.Pitch <= t.MaxF0 {
			f0[i] = res.Pitch
		}
	}
	return f0, nil
}

// place walks the waveform emitting an unvoiced mark every hop samples where
// the track is 0, and one voiced mark per period elsewhere. The first mark
// of a voiced region sits on the largest peak within one period, later marks
// on the largest peak within a quarter period of the prediction.
func place(x []float64, track func(pos float64) float64, hop, fs float64) []Epoch {
	var (
		out  []Epoch
		n    = float64(len(x))
		pos  float64
		last = math.Inf(-1)
	)
	for pos < n {
		f := track(pos)
		if !(f > 0) {
			out = append(out, Epoch{Time: pos / fs})
			last = math.Inf(-1)
			pos += hop
			continue
		}
		period := fs / f
		lo, hi := pos, pos+period
		if !math.IsInf(last, -1) {
			lo, hi = pos-period/4, pos+period/4
		}
		peak := argmaxAbs(x, lo, hi)
		if peak < 0 {
			break
		}
		mark := refine(x, peak)
		out = append(out, Epoch{Time: mark / fs, Voiced: true})
		last = mark
		pos = mark + period
	}
	return out
}

// argmaxAbs returns the index of the largest |x[i]| for i in [lo, hi], or -1
// if the range holds no samples.
func argmaxAbs(x []float64, lo, hi float64) int {
	from := int(math.Max(0, math.Ceil(lo)))
	to := int(math.Min(float64(len(x)-1), math.Floor(hi)))
	best := -1
	for i := from; i <= to; i++ {
		if best < 0 || math.Abs(x[i]) > math.Abs(x[best]) {
			best = i
		}
	}
	return best
}

// refine fits a parabola through |x| around i and returns the vertex.
func refine(x []float64, i int) float64 {
	if i <= 0 || i >= len(x)-1 {
		return float64(i)
	}
	a, b, c := math.Abs(x[i-1]), math.Abs(x[i]), math.Abs(x[i+1])
	den := a - 2*b + c
	if den == 0 {
		return float64(i)
	}
	off := 0.5 * (a - c) / den
	if off > 0.5 || off < -0.5 {
		return float64(i)
	}
	return float64(i) + off
}
