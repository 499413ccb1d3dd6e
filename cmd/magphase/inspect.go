package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/neurlang/magphase/charter"
	"github.com/neurlang/magphase/paramio"
)

func (a *app) inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a summary of a parameter file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("input")
			if in == "" {
				return errors.New("inspect: --input is required")
			}
			ps, p, err := paramio.Load(in)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%24s   %s\n", "File:", in)
			fmt.Fprintf(w, "%24s   %s\n", "Precision:", p)
			fmt.Fprintf(w, "%24s   %d\n", "Sample Rate:", ps.SampleRate)
			fmt.Fprintf(w, "%24s   %d (%d bins)\n", "FFT Length:", ps.FFTLen, ps.Bins())
			fmt.Fprintf(w, "%24s   %d\n", "Frames:", ps.Frames())
			if ps.NumSamples > 0 {
				fmt.Fprintf(w, "%24s   %.2f s\n", "Duration:", ps.Duration())
			}

			lo, hi, sum, voiced := math.Inf(1), math.Inf(-1), 0.0, 0
			for _, f := range ps.F0 {
				if f <= 0 {
					continue
				}
				voiced++
				sum += f
				lo = math.Min(lo, f)
				hi = math.Max(hi, f)
			}
			if ps.Frames() > 0 {
				fmt.Fprintf(w, "%24s   %d (%.1f%%)\n", "Voiced Frames:", voiced, 100*float64(voiced)/float64(ps.Frames()))
			}
			if voiced > 0 {
				fmt.Fprintf(w, "%24s   %.1f / %.1f / %.1f Hz\n", "F0 min/mean/max:", lo, sum/float64(voiced), hi)
			}

			chart, _ := cmd.Flags().GetString("chart")
			if chart == "" {
				return nil
			}
			f, err := os.Create(chart)
			if err != nil {
				return err
			}
			if err := charter.Contours(f, filepath.Base(in), ps); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			a.logger.Info("wrote chart", "path", chart)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringP("input", "i", "", "input parameter file")
	f.String("chart", "", "write an HTML chart of F0 and frame energy")
	return cmd
}
