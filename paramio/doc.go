// Package paramio stores magphase parameter sets in a compact binary file.
//
// Layout, little endian:
//
//	magic       [4]byte "MGPH"
//	version     uint16
//	precision   uint16  bits per stored value: 16, 32 or 64
//	sample_rate uint32
//	fft_len     uint32
//	num_samples uint64
//	frames      uint32
//
// followed by one record per frame in frame order: f0 (float64 at 64 bit
// precision, float32 otherwise), then FFTLen/2+1 values each of magnitude,
// R and I at the stored precision.
// Half precision uses IEEE 754 binary16 and is lossy. fft_len is a power of
// two no larger than 65536.
package paramio
