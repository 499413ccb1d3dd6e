// Command magphase analyzes speech into magnitude-phase vocoder parameters and
// synthesizes it back.
//
// Subcommands:
//
//	magphase analyze -i in.wav -o out.mgph [--est marks.est | --reaper /path/to/reaper]
//	magphase synthesize -i in.mgph -o out.wav [--f0-scale 1.2]
//	magphase copysynth -i in.wav -o out.wav [--f0-scale 1.2] [--mel]
//	magphase inspect -i in.mgph [--chart f0.html]
//
// Global flags --config, --log-level, --quiet, --fft-len, --backend and
// --workers may also be given as MAGPHASE_* environment variables, for
// example MAGPHASE_FFT_LEN=2048. Flags override the config file.
//
// Supported audio: .wav and .aiff (read and write), .flac (read).
package main
