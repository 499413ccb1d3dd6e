// Package magphase is a magnitude-phase vocoder.
//
// Analysis splits a waveform into pitch synchronous frames, one per glottal
// epoch in voiced regions and one every 5 ms elsewhere, and describes each
// frame by a magnitude spectrum, a pair of delay compensated phase features
// (see package phase) and an F0 value. Synthesis regenerates the frame grid
// from the F0 contour and rebuilds the waveform by overlap-add.
//
// Unmodified parameters resynthesize the analyzed waveform to numerical
// precision:
//
//	v := magphase.NewVocoder(magphase.NewConfig(), epoch.NewTracker())
//	ps, err := v.Analyze(ctx, wave, 48000)
//	...
//	out, err := v.Synthesize(ctx, ps)
package magphase
