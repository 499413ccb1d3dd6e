package mel

import "errors"
import "fmt"

import "github.com/neurlang/magphase/magphase"

// Mel configures the band reduction.
type Mel struct {
	NumMels       int
	NumPhaseBands int
	MelFmin       float64
	// MelFmax is the upper band edge in Hz. Zero means the Nyquist frequency.
	MelFmax float64
}

// NewMel creates a new Mel instance with default values.
func NewMel() *Mel {
	return &Mel{
		NumMels:       60,
		NumPhaseBands: 45,
	}
}

var ErrBands = errors.New("mel: bad band configuration")

// Compressed is a parameter set reduced to mel bands.
type Compressed struct {
	SampleRate int
	FFTLen     int
	NumSamples int

	// LogMag is the natural log of the band averaged magnitude.
	LogMag [][]float64
	Real   [][]float64
	Imag   [][]float64
	F0     []float64
}

func (m *Mel) check(fftLen, sampleRate int) (fmax float64, err error) {
	bins := fftLen/2 + 1
	fmax = m.MelFmax
	if fmax == 0 {
		fmax = float64(sampleRate) / 2
	}
	switch {
	case m.NumMels < 1 || m.NumPhaseBands < 1:
		return 0, fmt.Errorf("%w: %d magnitude and %d phase bands", ErrBands, m.NumMels, m.NumPhaseBands)
	case m.NumMels > bins || m.NumPhaseBands > bins:
		return 0, fmt.Errorf("%w: more bands than the %d bins", ErrBands, bins)
	case m.MelFmin < 0 || fmax <= m.MelFmin:
		return 0, fmt.Errorf("%w: range [%g, %g] Hz", ErrBands, m.MelFmin, fmax)
	}
	return fmax, nil
}

// Compress reduces ps to mel bands.
func (m *Mel) Compress(ps *magphase.ParameterSet) (*Compressed, error) {
	if err := ps.Validate(); err != nil {
		return nil, err
	}
	fmax, err := m.check(ps.FFTLen, ps.SampleRate)
	if err != nil {
		return nil, err
	}
	magBands := layout(m.NumMels, ps.FFTLen, ps.SampleRate, m.MelFmin, fmax)
	phBands := layout(m.NumPhaseBands, ps.FFTLen, ps.SampleRate, m.MelFmin, fmax)

	frames := ps.Frames()
	c := &Compressed{
		SampleRate: ps.SampleRate,
		FFTLen:     ps.FFTLen,
		NumSamples: ps.NumSamples,
		LogMag:     matrix(frames, m.NumMels),
		Real:       matrix(frames, m.NumPhaseBands),
		Imag:       matrix(frames, m.NumPhaseBands),
		F0:         append([]float64(nil), ps.F0...),
	}
	for t := 0; t < frames; t++ {
		magBands.reduce(ps.Mag[t], c.LogMag[t])
		spectral_normalize(c.LogMag[t])
		phBands.reduce(ps.Real[t], c.Real[t])
		phBands.reduce(ps.Imag[t], c.Imag[t])
	}
	return c, nil
}

// Expand interpolates c back to a full resolution parameter set with the
// same frames.
func (m *Mel) Expand(c *Compressed) (*magphase.ParameterSet, error) {
	fmax, err := m.check(c.FFTLen, c.SampleRate)
	if err != nil {
		return nil, err
	}
	frames := len(c.F0)
	if len(c.LogMag) != frames || len(c.Real) != frames || len(c.Imag) != frames {
		return nil, fmt.Errorf("%w: stream lengths differ", magphase.ErrInvalidParameterSet)
	}
	magBands := layout(m.NumMels, c.FFTLen, c.SampleRate, m.MelFmin, fmax)
	phBands := layout(m.NumPhaseBands, c.FFTLen, c.SampleRate, m.MelFmin, fmax)

	ps := magphase.NewParameterSet(c.SampleRate, c.FFTLen, frames)
	ps.NumSamples = c.NumSamples
	copy(ps.F0, c.F0)
	for t := 0; t < frames; t++ {
		if len(c.LogMag[t]) != m.NumMels || len(c.Real[t]) != m.NumPhaseBands || len(c.Imag[t]) != m.NumPhaseBands {
			return nil, fmt.Errorf("%w: frame %d band count", magphase.ErrInvalidParameterSet, t)
		}
		magBands.expand(c.LogMag[t], ps.Mag[t])
		spectral_denormalize(ps.Mag[t])
		phBands.expand(c.Real[t], ps.Real[t])
		phBands.expand(c.Imag[t], ps.Imag[t])
	}
	if err := ps.Validate(); err != nil {
		return nil, err
	}
	return ps, nil
}

func matrix(rows, cols int) [][]float64 {
	arena := make([]float64, rows*cols)
	out := make([][]float64, rows)
	for i := range out {
		out[i] = arena[i*cols : (i+1)*cols]
	}
	return out
}
