package magphase

import (
	"fmt"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Transform is a real FFT of a fixed length n.
type Transform interface {
	// Forward returns bins 0..n/2 of the spectrum of a length n frame.
	Forward(frame []float64) []complex128
	// Inverse returns the length n real frame of a half spectrum, scaled by 1/n.
	Inverse(spec []complex128) []float64
}

// NewTransform returns the named backend for length n.
func NewTransform(backend string, n int) (Transform, error) {
	switch backend {
	case BackendGoDSP, "":
		return godspTransform{n: n}, nil
	case BackendGonum:
		return &gonumTransform{n: n, fft: fourier.NewFFT(n)}, nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidInput, backend)
}

type godspTransform struct {
	n int
}

func (t godspTransform) Forward(frame []float64) []complex128 {
	return fft.FFTReal(frame)[:t.n/2+1]
}

func (t godspTransform) Inverse(spec []complex128) []float64 {
	full := make([]complex128, t.n)
	copy(full, spec)
	for k := 1; k < t.n/2; k++ {
		full[t.n-k] = cmplx.Conj(spec[k])
	}
	buf := fft.IFFT(full)
	out := make([]float64, t.n)
	for i := range out {
		out[i] = real(buf[i])
	}
	return out
}

type gonumTransform struct {
	n   int
	fft *fourier.FFT
}

func (t *gonumTransform) Forward(frame []float64) []complex128 {
	return t.fft.Coefficients(nil, frame)
}

func (t *gonumTransform) Inverse(spec []complex128) []float64 {
	out := t.fft.Sequence(nil, spec)
	scale := 1 / float64(t.n)
	for i := range out {
		out[i] *= scale
	}
	return out
}

// transformPool hands out transforms to frame workers. Gonum plans carry
// scratch space and must not be shared between goroutines.
type transformPool struct {
	pool sync.Pool
}

func newTransformPool(backend string, n int) (*transformPool, error) {
	if _, err := NewTransform(backend, n); err != nil {
		return nil, err
	}
	p := &transformPool{}
	p.pool.New = func() any {
		t, _ := NewTransform(backend, n)
		return t
	}
	return p, nil
}

func (p *transformPool) get() Transform {
	return p.pool.Get().(Transform)
}

func (p *transformPool) put(t Transform) {
	p.pool.Put(t)
}
