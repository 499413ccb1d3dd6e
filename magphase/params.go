package magphase

import (
	"errors"
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/dsputils"
)

// ParameterSet is the vocoder's frame-synchronous representation of a
// waveform. Row t of every stream describes frame t.
type ParameterSet struct {
	SampleRate int
	FFTLen     int
	// NumSamples is the analyzed waveform length. Zero means unknown, in which
	// case synthesis returns every sample the frame grid covers.
	NumSamples int

	Mag  [][]float64
	Real [][]float64
	Imag [][]float64
	// F0 is in Hz, 0 for unvoiced frames.
	F0 []float64
}

// NewParameterSet allocates zeroed streams for frames frames. Rows of each
// matrix share one backing array.
func NewParameterSet(sampleRate, fftLen, frames int) *ParameterSet {
	bins := fftLen/2 + 1
	return &ParameterSet{
		SampleRate: sampleRate,
		FFTLen:     fftLen,
		Mag:        newMatrix(frames, bins),
		Real:       newMatrix(frames, bins),
		Imag:       newMatrix(frames, bins),
		F0:         make([]float64, frames),
	}
}

func newMatrix(rows, cols int) [][]float64 {
	arena := make([]float64, rows*cols)
	m := make([][]float64, rows)
	for i := range m {
		m[i] = arena[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return m
}

var streamNames = [...]string{"mag", "real", "imag"}

// Frames returns the number of frames.
func (ps *ParameterSet) Frames() int {
	return len(ps.F0)
}

// Bins returns the number of spectral bins per frame.
func (ps *ParameterSet) Bins() int {
	return ps.FFTLen/2 + 1
}

// Voiced reports the voicing decision per frame.
func (ps *ParameterSet) Voiced() []bool {
	v := make([]bool, len(ps.F0))
	for i, f := range ps.F0 {
		v[i] = f > 0
	}
	return v
}

// Duration returns the length in seconds covered by NumSamples.
func (ps *ParameterSet) Duration() float64 {
	if ps.SampleRate <= 0 {
		return 0
	}
	return float64(ps.NumSamples) / float64(ps.SampleRate)
}

// Validate checks that all streams agree in shape and F0 is usable.
func (ps *ParameterSet) Validate() error {
	var errs []error
	if ps.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate %d is not positive", ps.SampleRate))
	}
	if ps.FFTLen < 4 || !dsputils.IsPowerOf2(ps.FFTLen) {
		errs = append(errs, fmt.Errorf("fft_len %d is not a power of two >= 4", ps.FFTLen))
	}
	if ps.NumSamples < 0 {
		errs = append(errs, fmt.Errorf("num_samples %d is negative", ps.NumSamples))
	}
	frames := len(ps.F0)
	if frames == 0 {
		errs = append(errs, errors.New("no frames"))
	}
	if len(ps.Mag) != frames || len(ps.Real) != frames || len(ps.Imag) != frames {
		errs = append(errs, fmt.Errorf("stream lengths differ: mag=%d real=%d imag=%d f0=%d",
			len(ps.Mag), len(ps.Real), len(ps.Imag), frames))
	}
	bins := ps.Bins()
	for k, m := range [][][]float64{ps.Mag, ps.Real, ps.Imag} {
		for t, row := range m {
			if len(row) != bins {
				errs = append(errs, fmt.Errorf("%s frame %d has %d bins, want %d", streamNames[k], t, len(row), bins))
				break
			}
		}
	}
	for t, f := range ps.F0 {
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			errs = append(errs, fmt.Errorf("f0 frame %d is %g", t, f))
			break
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidParameterSet, errors.Join(errs...))
	}
	return nil
}

// Clone returns a deep copy of ps.
func (ps *ParameterSet) Clone() *ParameterSet {
	out := &ParameterSet{
		SampleRate: ps.SampleRate,
		FFTLen:     ps.FFTLen,
		NumSamples: ps.NumSamples,
		Mag:        cloneMatrix(ps.Mag),
		Real:       cloneMatrix(ps.Real),
		Imag:       cloneMatrix(ps.Imag),
		F0:         append([]float64(nil), ps.F0...),
	}
	return out
}

func cloneMatrix(m [][]float64) [][]float64 {
	if len(m) == 0 {
		return nil
	}
	out := newMatrix(len(m), len(m[0]))
	for i := range m {
		copy(out[i], m[i])
	}
	return out
}

// ScaleF0 multiplies every voiced F0 value by factor. Since synthesis derives
// the frame spacing from F0, this shifts pitch and changes voiced durations.
func (ps *ParameterSet) ScaleF0(factor float64) error {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return fmt.Errorf("%w: F0 scale %g", ErrInvalidParameterSet, factor)
	}
	for i, f := range ps.F0 {
		if f > 0 {
			ps.F0[i] = f * factor
		}
	}
	return nil
}
