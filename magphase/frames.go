package magphase

import (
	"fmt"
	"math"

	"github.com/neurlang/magphase/epoch"
)

// Frame is one analysis frame of the pitch synchronous grid.
type Frame struct {
	// Mark is the fractional sample position of the epoch or unvoiced mark.
	Mark float64
	// Center is the integer sample the frame is centered on.
	Center int
	// Left and Right are the distances in samples to the neighbouring centers.
	Left  int
	Right int
	// Shift is the distance from the previous mark, the pitch period when voiced.
	Shift  float64
	Voiced bool
}

// Offset returns the sub-sample delay of the epoch relative to the frame
// center. Unvoiced frames have no epoch and report 0.
func (f Frame) Offset() float64 {
	if !f.Voiced {
		return 0
	}
	return f.Mark - float64(f.Center)
}

// halves returns Left and Right limited to what a length n transform holds.
func (f Frame) halves(n int) (left, right int) {
	limit := (n - 1) / 2
	return min(f.Left, limit), min(f.Right, limit)
}

// FrameGrid is the ordered frame sequence of one waveform.
type FrameGrid struct {
	Frames []Frame
	// Origin is the virtual mark preceding the first frame, at -Hop.
	Origin float64
	// Hop is the unvoiced spacing in samples.
	Hop float64
}

// Len returns the number of frames.
func (g FrameGrid) Len() int {
	return len(g.Frames)
}

// Shifts returns the per frame shifts.
func (g FrameGrid) Shifts() []float64 {
	out := make([]float64, len(g.Frames))
	for i, f := range g.Frames {
		out[i] = f.Shift
	}
	return out
}

// Voicing returns the per frame voicing decisions.
func (g FrameGrid) Voicing() []bool {
	out := make([]bool, len(g.Frames))
	for i, f := range g.Frames {
		out[i] = f.Voiced
	}
	return out
}

// Samples returns the number of samples the grid reaches, up to and
// including the last center.
func (g FrameGrid) Samples() int {
	if len(g.Frames) == 0 {
		return 0
	}
	return g.Frames[len(g.Frames)-1].Center + 1
}

// Segment builds the analysis grid for an n sample waveform. It is the grid
// GridFromF0 rebuilds from the contour Contour returns, so synthesis of
// unmodified parameters lands every frame where analysis took it.
func Segment(n, sampleRate int, epochs []epoch.Epoch, cfg Config) (FrameGrid, error) {
	f0, err := Contour(n, sampleRate, epochs, cfg)
	if err != nil {
		return FrameGrid{}, err
	}
	return GridFromF0(f0, sampleRate)
}

// Contour lays out the frames of an n sample waveform as an F0 contour.
//
// Voiced epochs that lie outside the waveform or closer than one MaxF0 period
// to the previous kept epoch are dropped. Voiced runs break at unvoiced
// epochs and at gaps longer than one MinF0 period; a run needs two epochs to
// carry a period. Each voiced frame gets the period since the previous epoch
// of its run, the first one the period after it, and the run is smoothed when
// cfg.SmoothF0 is set. Unvoiced frames fill the space before each run
// and after the last one every Hop samples. The fill stops where the first
// voiced mark, one period after it, lands within Hop/2 of the first epoch.
func Contour(n, sampleRate int, epochs []epoch.Epoch, cfg Config) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidInput, sampleRate)
	}
	if n < MinSamples(sampleRate) {
		return nil, fmt.Errorf("%w: waveform has %d samples, need at least %d", ErrInvalidInput, n, MinSamples(sampleRate))
	}
	if err := epoch.Validate(epochs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	var (
		fs        = float64(sampleRate)
		hop       = Hop(sampleRate)
		end       = float64(n - 1)
		minPeriod = fs / cfg.MaxF0
		maxPeriod = fs / cfg.MinF0
		last      = math.Inf(-1)
		runs      [][]float64
		run       []float64
	)
	flush := func() {
		if len(run) > 1 {
			runs = append(runs, run)
		}
		run = nil
	}
	for _, e := range epochs {
		pos := e.Time * fs
		if !e.Voiced {
			flush()
			continue
		}
		if pos < 0 || pos > end || pos-last < minPeriod {
			continue
		}
		if len(run) > 0 && pos-last > maxPeriod {
			flush()
		}
		run = append(run, pos)
		last = pos
	}
	flush()

	var (
		f0  []float64
		pos = -hop
	)
	for _, run := range runs {
		rf0 := runF0(run, sampleRate, cfg)
		first := period(rf0[0], fs)
		for pos+first < 0 || pos+hop+first <= run[0]+hop/2 {
			pos += hop
			f0 = append(f0, 0)
		}
		for _, f := range rf0 {
			p := period(f, fs)
			if pos+p > end {
				break
			}
			pos += p
			f0 = append(f0, f)
		}
	}
	for pos < end {
		pos += hop
		f0 = append(f0, 0)
	}
	return f0, nil
}

// runF0 returns the F0 of each epoch of a voiced run from the spacing of its
// epochs.
func runF0(run []float64, sampleRate int, cfg Config) []float64 {
	shifts := make([]float64, len(run))
	voiced := make([]bool, len(run))
	for j := range run {
		voiced[j] = true
		if j > 0 {
			shifts[j] = run[j] - run[j-1]
		} else {
			shifts[j] = run[1] - run[0]
		}
	}
	f0 := ShiftToF0(shifts, voiced, sampleRate)
	if cfg.SmoothF0 {
		f0 = SmoothF0(f0, cfg.SmoothLen)
	}
	return f0
}

// period is the voiced shift F0ToShift derives from f.
func period(f, fs float64) float64 {
	return math.Max(fs/f, 1)
}

// GridFromF0 rebuilds the frame grid from an F0 contour the way Segment laid
// it out: marks are the running sum of the per frame shifts from -Hop.
func GridFromF0(f0 []float64, sampleRate int) (FrameGrid, error) {
	shifts, err := F0ToShift(f0, sampleRate)
	if err != nil {
		return FrameGrid{}, err
	}
	hop := Hop(sampleRate)
	marks := make([]float64, len(shifts))
	voiced := make([]bool, len(shifts))
	pos := -hop
	for i, s := range shifts {
		pos += s
		marks[i] = pos
		voiced[i] = f0[i] > 0
	}
	return newGrid(marks, voiced, hop), nil
}

func newGrid(marks []float64, voiced []bool, hop float64) FrameGrid {
	g := FrameGrid{Frames: make([]Frame, len(marks)), Origin: -hop, Hop: hop}
	prevMark := g.Origin
	prevCenter := int(math.Round(prevMark))
	for i, m := range marks {
		c := int(math.Round(m))
		g.Frames[i] = Frame{
			Mark:   m,
			Center: c,
			Left:   max(c-prevCenter, 1),
			Shift:  m - prevMark,
			Voiced: voiced[i],
		}
		if i > 0 {
			g.Frames[i-1].Right = max(c-prevCenter, 1)
		}
		prevMark, prevCenter = m, c
	}
	if k := len(marks); k > 0 {
		next := int(math.Round(marks[k-1] + hop))
		g.Frames[k-1].Right = max(next-prevCenter, 1)
	}
	return g
}
