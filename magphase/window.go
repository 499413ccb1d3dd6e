package magphase

import "github.com/mjibson/go-dsp/window"

// Window returns the asymmetric analysis window of f for a length n
// transform. Element j weights sample Center-left+j. The rising half is a
// Hann of width Left, the falling half a Hann of width Right, so the halves
// of adjacent frames sum to one between their centers.
func (f Frame) Window(n int) []float64 {
	left, right := f.halves(n)
	w := make([]float64, left+right+1)
	copy(w, window.Hann(2*left + 1)[:left+1])
	copy(w[left:], window.Hann(2*right + 1)[right:])
	return w
}
