package phase

import "math"

// Ramp returns the linear phase, in radians, that a delay of d samples adds
// to bin k of an n-point transform, negated. Adding it removes the delay.
func Ramp(k, n int, d float64) float64 {
	if n <= 0 || d == 0 {
		return 0
	}
	return 2 * math.Pi * float64(k) * d / float64(n)
}

// Compensate removes the delay d (in samples) from the half-spectrum phase ph,
// in place, and returns ph. Results are wrapped into (-π, π].
func Compensate(ph []float64, d float64) []float64 {
	var n = fftLen(len(ph))
	for k := range ph {
		ph[k] = Wrap(ph[k] + Ramp(k, n, d))
	}
	return ph
}

// Restore reintroduces the delay d removed by Compensate, in place, and returns ph.
func Restore(ph []float64, d float64) []float64 {
	var n = fftLen(len(ph))
	for k := range ph {
		ph[k] = Wrap(ph[k] - Ramp(k, n, d))
	}
	return ph
}
