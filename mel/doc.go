// Package mel provides a low dimensional, mel-band view of magphase parameters.
//
// Full resolution parameter sets carry FFTLen/2+1 values per stream and frame.
// This package reduces them for modelling and inspection:
//   - Magnitude is averaged into NumMels mel-spaced bands and stored as log
//   - Phase features R and I are averaged into NumPhaseBands mel-spaced bands
//   - Expand interpolates both back to full resolution, frame for frame
//
// F0 and the frame count pass through unchanged, so an expanded set
// synthesizes on exactly the analysis frame grid.
package mel
