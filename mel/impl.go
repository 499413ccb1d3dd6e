package mel

import "math"

func mel_to_hz(value float64) float64 {
	const _MEL_BREAK_FREQUENCY_HERTZ = 700.0
	const _MEL_HIGH_FREQUENCY_Q = 1127.0
	return _MEL_BREAK_FREQUENCY_HERTZ * (math.Exp(value/_MEL_HIGH_FREQUENCY_Q) - 1.0)
}

func hz_to_mel(value float64) float64 {
	const _MEL_BREAK_FREQUENCY_HERTZ = 700.0
	const _MEL_HIGH_FREQUENCY_Q = 1127.0
	return _MEL_HIGH_FREQUENCY_Q * math.Log(1.0+(value/_MEL_BREAK_FREQUENCY_HERTZ))
}

// floor is the smallest magnitude kept before taking the log.
const floor = 1e-5

func spectral_normalize(buf []float64) {
	for i := range buf {
		if !(buf[i] >= floor) {
			buf[i] = floor
		}
		buf[i] = math.Log(buf[i])
	}
}

func spectral_denormalize(buf []float64) {
	for i := range buf {
		buf[i] = math.Exp(buf[i])
	}
}

// bands partitions the bins of a half spectrum into contiguous ranges.
// Band i covers bins edges[i] to edges[i+1]-1 and centers[i] is its middle
// in fractional bins.
type bands struct {
	edges   []int
	centers []float64
}

// layout splits bins 0..fftLen/2 into n mel-spaced bands between fmin and
// fmax. Bins below fmin join the first band and bins above fmax the last.
// Every band holds at least one bin, which needs n <= fftLen/2+1.
func layout(n, fftLen, sampleRate int, fmin, fmax float64) bands {
	bins := fftLen/2 + 1
	hzPerBin := float64(sampleRate) / float64(fftLen)
	lo, hi := hz_to_mel(fmin), hz_to_mel(fmax)

	b := bands{edges: make([]int, n+1), centers: make([]float64, n)}
	for i := 0; i <= n; i++ {
		hz := mel_to_hz(lo + (hi-lo)*float64(i)/float64(n))
		b.edges[i] = int(math.Round(hz / hzPerBin))
	}
	b.edges[0] = 0
	b.edges[n] = bins
	for i := 1; i < n; i++ {
		b.edges[i] = min(max(b.edges[i], b.edges[i-1]+1), bins-n+i)
	}
	for i := 0; i < n; i++ {
		b.centers[i] = 0.5 * float64(b.edges[i]+b.edges[i+1]-1)
	}
	return b
}

// reduce averages row over each band into dst.
func (b bands) reduce(row, dst []float64) {
	for i := range dst {
		var sum float64
		for k := b.edges[i]; k < b.edges[i+1]; k++ {
			sum += row[k]
		}
		dst[i] = sum / float64(b.edges[i+1]-b.edges[i])
	}
}

// expand linearly interpolates band values at every bin, holding the first
// and last band value beyond the outer centers.
func (b bands) expand(vals, dst []float64) {
	j := 0
	for k := range dst {
		x := float64(k)
		for j+1 < len(b.centers) && b.centers[j+1] <= x {
			j++
		}
		switch {
		case x <= b.centers[0]:
			dst[k] = vals[0]
		case j+1 >= len(b.centers):
			dst[k] = vals[len(vals)-1]
		default:
			a := (x - b.centers[j]) / (b.centers[j+1] - b.centers[j])
			dst[k] = (1-a)*vals[j] + a*vals[j+1]
		}
	}
}
