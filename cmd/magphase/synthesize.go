package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/neurlang/magphase/audio"
	"github.com/neurlang/magphase/magphase"
	"github.com/neurlang/magphase/paramio"
)

func (a *app) synthesizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Synthesize an audio file from a parameter file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("input")
			out, _ := cmd.Flags().GetString("output")
			if in == "" || out == "" {
				return errors.New("synthesize: --input and --output are required")
			}
			ps, p, err := paramio.Load(in)
			if err != nil {
				return err
			}
			a.logger.Debug("loaded parameters", "path", in, "frames", ps.Frames(), "precision", p)
			_, err = a.synthesize(cmd, ps, out)
			return err
		},
	}
	f := cmd.Flags()
	f.StringP("input", "i", "", "input parameter file")
	f.StringP("output", "o", "", "output audio file (.wav, .aiff)")
	addSynthFlags(cmd)
	return cmd
}

func addSynthFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64("f0-scale", 1, "multiply voiced F0 by this factor")
	f.Int("bit-depth", 0, "output PCM bit depth (config default 16)")
}

// synthesize applies the synthesis flags to ps, writes the waveform to out
// and returns it.
func (a *app) synthesize(cmd *cobra.Command, ps *magphase.ParameterSet, out string) ([]float64, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if scale, _ := cmd.Flags().GetFloat64("f0-scale"); scale != 1 {
		if err := ps.ScaleF0(scale); err != nil {
			return nil, err
		}
	}
	depth, _ := cmd.Flags().GetInt("bit-depth")
	if depth == 0 {
		depth = a.cfg.Output.BitDepth
	}

	v := a.vocoder(nil)
	finish := a.progress(v, "synthesizing...")
	wave, err := v.Synthesize(ctx, ps)
	finish()
	if err != nil {
		return nil, err
	}
	if err := audio.Save(out, wave, ps.SampleRate, depth); err != nil {
		return nil, err
	}
	a.printf(cmd.OutOrStdout(), "%24s   %s (%.2f s)\n", "Wrote:", out, float64(len(wave))/float64(ps.SampleRate))
	return wave, nil
}
