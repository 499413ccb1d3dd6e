// Package phase provides the phase representation used by the magphase vocoder.
//
// Raw phase angles wrap around at ±π, which makes them a poor exchange format:
// a tiny error near the wrap point turns into a full-turn jump. This package
// instead stores every bin as the pair of bounded features
//   - R, the real part of the unit phasor (cos)
//   - I, the imaginary part of the unit phasor (sin)
//
// computed after removing the linear phase ramp caused by the sub-sample
// position of the glottal epoch inside the analysis frame (delay compensation).
// Decoding reverses both steps and never needs the original raw phase.
package phase
