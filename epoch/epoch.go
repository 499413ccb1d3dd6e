package epoch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrInvalidEpochs reports an epoch sequence that is not usable for framing.
var ErrInvalidEpochs = errors.New("epoch: invalid epoch sequence")

// Epoch is a single pitch mark.
type Epoch struct {
	// Time is the position of the mark in seconds from the start of the waveform.
	Time float64
	// Voiced is false for marks the provider placed in unvoiced regions.
	Voiced bool
}

// Provider estimates epochs for a whole waveform.
type Provider interface {
	Epochs(ctx context.Context, wave []float64, sampleRate int) ([]Epoch, error)
}

// Static is a Provider returning a fixed, precomputed epoch list.
type Static []Epoch

// Epochs returns a copy of s.
func (s Static) Epochs(ctx context.Context, wave []float64, sampleRate int) ([]Epoch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone([]Epoch(s)), nil
}

// Validate checks that epoch times are finite and non-decreasing.
func Validate(epochs []Epoch) error {
	var prev = math.Inf(-1)
	for i, e := range epochs {
		if math.IsNaN(e.Time) || math.IsInf(e.Time, 0) {
			return fmt.Errorf("%w: epoch %d has non-finite time", ErrInvalidEpochs, i)
		}
		if e.Time < prev {
			return fmt.Errorf("%w: epoch %d at %.6fs precedes %.6fs", ErrInvalidEpochs, i, e.Time, prev)
		}
		prev = e.Time
	}
	return nil
}

// Periodic returns voiced epochs every period seconds in [start, end).
func Periodic(start, end, period float64) []Epoch {
	if !(period > 0) {
		return nil
	}
	var out []Epoch
	for k := 0; ; k++ {
		t := start + float64(k)*period
		if t >= end {
			break
		}
		out = append(out, Epoch{Time: t, Voiced: true})
	}
	return out
}

// VoicedCount returns the number of voiced epochs.
func VoicedCount(epochs []Epoch) (n int) {
	for _, e := range epochs {
		if e.Voiced {
			n++
		}
	}
	return
}
