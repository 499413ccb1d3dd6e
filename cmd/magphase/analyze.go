package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neurlang/magphase/audio"
	"github.com/neurlang/magphase/epoch"
	"github.com/neurlang/magphase/magphase"
	"github.com/neurlang/magphase/paramio"
)

func (a *app) analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze an audio file into a parameter file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("input")
			out, _ := cmd.Flags().GetString("output")
			if in == "" || out == "" {
				return errors.New("analyze: --input and --output are required")
			}
			precision, _ := cmd.Flags().GetString("precision")
			if precision == "" {
				precision = a.cfg.Output.Precision
			}
			p, err := paramio.ParsePrecision(precision)
			if err != nil {
				return err
			}

			ps, _, err := a.analyze(cmd, in)
			if err != nil {
				return err
			}
			if err := paramio.Save(out, ps, p); err != nil {
				return err
			}
			a.printf(cmd.OutOrStdout(), "%24s   %s (%d frames, %s)\n", "Wrote:", out, ps.Frames(), p)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringP("input", "i", "", "input audio file (.wav, .flac, .aiff)")
	f.StringP("output", "o", "", "output parameter file")
	f.String("precision", "", "stored precision: float16, float32, float64")
	addEpochFlags(cmd)
	return cmd
}

func addEpochFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("est", "", "read epochs from a REAPER .est file")
	f.String("reaper", "", "run this REAPER binary to estimate epochs")
	f.String("epochs-out", "", "write the epochs used to a REAPER .est file")
}

// analyze loads in, estimates epochs and returns its parameters along with
// the loaded waveform.
func (a *app) analyze(cmd *cobra.Command, in string) (*magphase.ParameterSet, []float64, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	wave, sr, err := audio.Load(in)
	if err != nil {
		return nil, nil, err
	}
	provider, err := a.provider(cmd)
	if err != nil {
		return nil, nil, err
	}
	epochs, err := provider.Epochs(ctx, wave, sr)
	if err != nil {
		return nil, nil, fmt.Errorf("epochs: %w", err)
	}
	if path, _ := cmd.Flags().GetString("epochs-out"); path != "" {
		if err := writeEst(path, epochs); err != nil {
			return nil, nil, err
		}
	}

	a.printf(cmd.OutOrStdout(), "%24s   %s\n", "Input:", in)
	a.printf(cmd.OutOrStdout(), "%24s   %d\n", "Sample Rate:", sr)
	a.printf(cmd.OutOrStdout(), "%24s   %.2f s\n", "Duration:", float64(len(wave))/float64(sr))
	a.printf(cmd.OutOrStdout(), "%24s   %d (%d voiced)\n", "Epochs:", len(epochs), epoch.VoicedCount(epochs))

	v := a.vocoder(provider)
	finish := a.progress(v, "analyzing...")
	ps, err := v.AnalyzeEpochs(ctx, wave, sr, epochs)
	finish()
	if err != nil {
		return nil, nil, err
	}
	return ps, wave, nil
}

func writeEst(path string, epochs []epoch.Epoch) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := epoch.WriteEst(f, epochs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
