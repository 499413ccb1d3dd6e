package magphase

import (
	"errors"

	"github.com/neurlang/magphase/phase"
)

var (
	// ErrInvalidInput reports a waveform, sample rate, epoch list or
	// configuration that analysis cannot work with.
	ErrInvalidInput = errors.New("magphase: invalid input")

	// ErrInvalidParameterSet reports inconsistent streams handed to synthesis.
	ErrInvalidParameterSet = errors.New("magphase: invalid parameter set")

	// ErrNumericDegenerate marks bins whose phase could not be recovered.
	// It is counted and logged, never returned from Analyze or Synthesize.
	ErrNumericDegenerate = phase.ErrNumericDegenerate
)
