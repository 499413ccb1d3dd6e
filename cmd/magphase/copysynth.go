package main

import (
	"errors"
	"math"

	"github.com/spf13/cobra"

	"github.com/neurlang/magphase/mel"
)

func (a *app) copysynthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copysynth",
		Short: "Analyze and resynthesize an audio file",
		Long: `copysynth runs analysis and synthesis back to back. With --mel the
parameters pass through the low dimensional mel band representation first,
which shows what a model trained on that representation can reproduce.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("input")
			out, _ := cmd.Flags().GetString("output")
			if in == "" || out == "" {
				return errors.New("copysynth: --input and --output are required")
			}
			ps, wave, err := a.analyze(cmd, in)
			if err != nil {
				return err
			}

			if useMel, _ := cmd.Flags().GetBool("mel"); useMel {
				m := mel.NewMel()
				m.NumMels, _ = cmd.Flags().GetInt("mel-bands")
				m.NumPhaseBands, _ = cmd.Flags().GetInt("phase-bands")
				c, err := m.Compress(ps)
				if err != nil {
					return err
				}
				if ps, err = m.Expand(c); err != nil {
					return err
				}
				a.logger.Debug("mel round trip", "mel_bands", m.NumMels, "phase_bands", m.NumPhaseBands)
			}

			got, err := a.synthesize(cmd, ps, out)
			if err != nil {
				return err
			}
			if scale, _ := cmd.Flags().GetFloat64("f0-scale"); scale == 1 {
				a.printf(cmd.OutOrStdout(), "%24s   %.1f dB\n", "Resynthesis SNR:", snr(wave, got))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringP("input", "i", "", "input audio file (.wav, .flac, .aiff)")
	f.StringP("output", "o", "", "output audio file (.wav, .aiff)")
	f.Bool("mel", false, "pass parameters through mel band compression")
	f.Int("mel-bands", mel.NewMel().NumMels, "magnitude bands for --mel")
	f.Int("phase-bands", mel.NewMel().NumPhaseBands, "phase bands for --mel")
	addEpochFlags(cmd)
	addSynthFlags(cmd)
	return cmd
}

// snr returns the signal to error ratio of got against want in dB.
func snr(want, got []float64) float64 {
	var sig, noise float64
	for i := range want {
		var g float64
		if i < len(got) {
			g = got[i]
		}
		sig += want[i] * want[i]
		noise += (want[i] - g) * (want[i] - g)
	}
	if noise == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(sig/noise)
}
