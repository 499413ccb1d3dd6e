package magphase

import (
	"math/cmplx"

	"github.com/neurlang/magphase/phase"
)

// AnalyzeFrame windows frame f of x, rotates the frame center to index 0 of
// a length n buffer and writes the magnitude and wrapped phase of bins
// 0..n/2 into mag and ph. Samples outside x read as zero. It reports whether
// the window had to be shortened to fit n.
func AnalyzeFrame(x []float64, f Frame, t Transform, n int, mag, ph []float64) (clamped bool) {
	left, right := f.halves(n)
	w := f.Window(n)
	buf := make([]float64, n)
	for m := -left; m <= right; m++ {
		idx := f.Center + m
		if idx < 0 || idx >= len(x) {
			continue
		}
		buf[(m+n)%n] = x[idx] * w[m+left]
	}
	spec := t.Forward(buf)
	for k := range mag {
		mag[k] = cmplx.Abs(spec[k])
		ph[k] = phase.Wrap(cmplx.Phase(spec[k]))
	}
	return left != f.Left || right != f.Right
}

// SynthesizeFrame rebuilds the windowed segment of frame f from magnitude and
// phase. Element j of the result belongs at sample Center-left+j, where left
// is the possibly shortened left half.
func SynthesizeFrame(mag, ph []float64, f Frame, t Transform, n int) []float64 {
	spec := make([]complex128, n/2+1)
	for k := range spec {
		spec[k] = cmplx.Rect(mag[k], ph[k])
	}
	buf := t.Inverse(spec)
	left, right := f.halves(n)
	seg := make([]float64, left+right+1)
	for m := -left; m <= right; m++ {
		seg[m+left] = buf[(m+n)%n]
	}
	return seg
}

// OverlapAdd sums frame segments into a length samples waveform and divides
// by the accumulated window weight wherever it is non-negligible.
func OverlapAdd(grid FrameGrid, segs [][]float64, n, samples int) []float64 {
	out := make([]float64, samples)
	windowSum := make([]float64, samples)
	for i, f := range grid.Frames {
		left, right := f.halves(n)
		w := f.Window(n)
		for m := -left; m <= right; m++ {
			idx := f.Center + m
			if idx < 0 || idx >= samples {
				continue
			}
			out[idx] += segs[i][m+left]
			windowSum[idx] += w[m+left]
		}
	}
	for i := range out {
		if windowSum[i] > 1e-8 {
			out[i] /= windowSum[i]
		} else {
			out[i] = 0
		}
	}
	return out
}
