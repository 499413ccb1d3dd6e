// Package audio loads and saves mono waveforms as float64 sample vectors.
//
// The container is chosen by file extension: .wav, .flac (read only) and
// .aif/.aiff. Multi channel input is mixed down to mono. Samples are scaled
// to [-1, 1].
package audio
