package phase

import "errors"
import "math"

// Fallback is the phase, in radians, assigned to bins whose phase is undefined.
const Fallback = 0.0

// ErrNumericDegenerate reports a bin whose phase could not be recovered.
// It always travels together with the Fallback phase, so callers may count it and continue.
var ErrNumericDegenerate = errors.New("phase: numeric degenerate bin")

// Wrap maps theta into (-π, π]. Non-finite input maps to Fallback.
func Wrap(theta float64) float64 {
	if math.IsNaN(theta) || math.IsInf(theta, 0) {
		return Fallback
	}
	w := math.Remainder(theta, 2*math.Pi)
	if w <= -math.Pi {
		w += 2 * math.Pi
	}
	return w
}

// Encode returns the R and I features of a single phase value.
func Encode(theta float64) (r, i float64) {
	return math.Cos(theta), math.Sin(theta)
}

// Decode recovers the phase of a bin from its R and I features.
//
// Features are clamped to [-1, 1] first, so scaled or slightly overshooting
// values (after smoothing or quantisation) still decode. R = I = 0 and NaN
// input return Fallback and ErrNumericDegenerate.
func Decode(r, i float64) (float64, error) {
	if math.IsNaN(r) || math.IsNaN(i) {
		return Fallback, ErrNumericDegenerate
	}
	r = clamp(r)
	i = clamp(i)
	if r == 0 && i == 0 {
		return Fallback, ErrNumericDegenerate
	}
	return Wrap(math.Atan2(i, r)), nil
}

// EncodeFrame delay-compensates the raw phase of one frame by the offset d
// (in samples) and writes its R and I features into r and i.
//
// Bins with zero or non-finite magnitude, or non-finite phase, get the
// features of the Fallback phase (R = 1, I = 0). The number of such bins is returned.
func EncodeFrame(mag, ph []float64, d float64, r, i []float64) (degenerate int) {
	var n = fftLen(len(ph))
	for k := range ph {
		if !(mag[k] > 0) || math.IsInf(mag[k], 0) || math.IsNaN(ph[k]) || math.IsInf(ph[k], 0) {
			r[k], i[k] = 1, 0
			degenerate++
			continue
		}
		r[k], i[k] = Encode(ph[k] + Ramp(k, n, d))
	}
	return
}

// DecodeFrame is the inverse of EncodeFrame: it decodes R and I and restores
// the delay ramp for offset d, writing the raw phase into ph.
// The number of bins that fell back to the Fallback phase is returned.
func DecodeFrame(r, i []float64, d float64, ph []float64) (degenerate int) {
	var n = fftLen(len(ph))
	for k := range ph {
		theta, err := Decode(r[k], i[k])
		if err != nil {
			degenerate++
		}
		ph[k] = Wrap(theta - Ramp(k, n, d))
	}
	return
}

// fftLen returns the transform length belonging to a half spectrum of bins values.
func fftLen(bins int) int {
	return 2 * (bins - 1)
}

func clamp(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
