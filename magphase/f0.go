package magphase

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// ShiftToF0 converts per frame shifts to F0 in Hz. Unvoiced frames get 0.
func ShiftToF0(shifts []float64, voiced []bool, sampleRate int) []float64 {
	f0 := make([]float64, len(shifts))
	for i, s := range shifts {
		if voiced[i] && s > 0 {
			f0[i] = float64(sampleRate) / s
		}
	}
	return f0
}

// F0ToShift is the inverse of ShiftToF0. Unvoiced frames get the unvoiced
// hop, voiced periods are at least one sample.
func F0ToShift(f0 []float64, sampleRate int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidParameterSet, sampleRate)
	}
	hop := Hop(sampleRate)
	shifts := make([]float64, len(f0))
	for i, f := range f0 {
		switch {
		case math.IsNaN(f) || math.IsInf(f, 0) || f < 0:
			return nil, fmt.Errorf("%w: f0 frame %d is %g", ErrInvalidParameterSet, i, f)
		case f == 0:
			shifts[i] = hop
		default:
			shifts[i] = math.Max(float64(sampleRate)/f, 1)
		}
	}
	return shifts, nil
}

// SmoothF0 median filters f0 with a window of length frames. The window never
// crosses a voiced run boundary, so unvoiced frames stay 0 and no run borrows
// values from its neighbours.
func SmoothF0(f0 []float64, length int) []float64 {
	out := slices.Clone(f0)
	if length < 2 {
		return out
	}
	half := length / 2
	buf := make([]float64, 0, length)
	for start := 0; start < len(f0); {
		if !(f0[start] > 0) {
			start++
			continue
		}
		end := start
		for end < len(f0) && f0[end] > 0 {
			end++
		}
		for i := start; i < end; i++ {
			lo, hi := max(start, i-half), min(end, i+half+1)
			buf = append(buf[:0], f0[lo:hi]...)
			slices.Sort(buf)
			out[i] = stat.Quantile(0.5, stat.Empirical, buf, nil)
		}
		start = end
	}
	return out
}

// ContinuousF0 fills unvoiced frames by linear interpolation between the
// surrounding voiced values and holds the edge values at both ends. It also
// returns the voicing mask needed to undo the interpolation. An all unvoiced
// contour stays all zero.
func ContinuousF0(f0 []float64) (cont []float64, voiced []bool) {
	cont = make([]float64, len(f0))
	voiced = make([]bool, len(f0))
	prev := -1
	for i, f := range f0 {
		if !(f > 0) {
			continue
		}
		voiced[i] = true
		cont[i] = f
		switch {
		case prev < 0:
			for j := 0; j < i; j++ {
				cont[j] = f
			}
		case i-prev > 1:
			for j := prev + 1; j < i; j++ {
				a := float64(j-prev) / float64(i-prev)
				cont[j] = (1-a)*f0[prev] + a*f
			}
		}
		prev = i
	}
	if prev >= 0 {
		for j := prev + 1; j < len(f0); j++ {
			cont[j] = f0[prev]
		}
	}
	return cont, voiced
}

// FromContinuousF0 zeroes the frames ContinuousF0 marked unvoiced.
func FromContinuousF0(cont []float64, voiced []bool) []float64 {
	out := make([]float64, len(cont))
	for i, f := range cont {
		if i < len(voiced) && voiced[i] {
			out[i] = f
		}
	}
	return out
}
