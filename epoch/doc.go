// Package epoch supplies glottal epochs (pitch marks) to the magphase analyzer.
//
// An epoch is a time stamp of an estimated glottal pulse together with a voicing
// decision. The analyzer treats any Provider as a trusted oracle and only bound
// checks what it returns. Available providers:
//   - Static, a fixed list (precomputed marks, tests)
//   - Reaper, which runs the external REAPER binary
//   - Tracker, a built-in YIN based tracker with peak picking
//
// ReadEst and WriteEst exchange marks in the REAPER ASCII .est format.
package epoch
