package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/neurlang/magphase/config"
	"github.com/neurlang/magphase/epoch"
	"github.com/neurlang/magphase/magphase"
)

const envPrefix = "MAGPHASE"

// app carries the state shared by all subcommands of one invocation.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger
	quiet  bool
	stderr io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "magphase",
		Short: "Magnitude-phase vocoder",
		Long: `magphase turns speech into pitch synchronous magnitude and phase
parameters and back. Unmodified parameters resynthesize the input to
numerical precision; F0 may be scaled in between to shift pitch.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "YAML config file")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.BoolP("quiet", "q", false, "suppress progress and informational output")
	pf.Int("fft-len", 0, "FFT length, a power of two (config default 4096)")
	pf.String("backend", "", "FFT backend (godsp, gonum)")
	pf.Int("workers", 0, "frame workers, 0 for GOMAXPROCS")

	root.AddCommand(
		a.analyzeCmd(),
		a.synthesizeCmd(),
		a.copysynthCmd(),
		a.inspectCmd(),
	)
	return root
}

// init loads the config file and applies flag and environment overrides.
func (a *app) init(cmd *cobra.Command) error {
	if err := bindFlags(cmd, a.v); err != nil {
		return err
	}

	cfg := config.Default()
	if path := a.v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.v.IsSet("log-level") {
		cfg.LogLevel = config.LogLevel(a.v.GetString("log-level"))
	}
	if a.v.IsSet("fft-len") {
		cfg.Vocoder.FFTLen = a.v.GetInt("fft-len")
	}
	if a.v.IsSet("backend") {
		cfg.Vocoder.Backend = a.v.GetString("backend")
	}
	if a.v.IsSet("workers") {
		cfg.Vocoder.Workers = a.v.GetInt("workers")
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	a.cfg = cfg
	a.quiet = a.v.GetBool("quiet")
	a.stderr = cmd.ErrOrStderr()
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: cfg.LogLevel.Level()}))
	a.logger.Debug("config", "fft_len", cfg.Vocoder.FFTLen, "backend", cfg.Vocoder.Backend,
		"workers", cfg.Vocoder.Workers, "epochs", cfg.Epochs.Provider)
	return nil
}

// bindFlags binds each cobra flag to its associated viper configuration
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))

		if err := v.BindEnv(f.Name, envPrefix+"_"+envVarSuffix); err != nil {
			lastErr = err
		}

		// Apply the viper value to the flag when the flag is not set and viper has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				lastErr = err
			}
		}

		if err := v.BindPFlag(f.Name, f); err != nil {
			lastErr = err
		}
	})

	return lastErr
}

func (a *app) vocoder(provider epoch.Provider) *magphase.Vocoder {
	v := magphase.NewVocoder(a.cfg.Vocoder, provider)
	v.Logger = a.logger
	return v
}

// progress attaches a progress bar to v and returns a function that
// finishes it. It does nothing in quiet mode.
func (a *app) progress(v *magphase.Vocoder, desc string) (finish func()) {
	if a.quiet {
		v.Progress = nil
		return func() {}
	}
	var (
		once sync.Once
		bar  *progressbar.ProgressBar
	)
	v.Progress = func(done, total int) {
		once.Do(func() {
			bar = progressbar.NewOptions(
				total,
				progressbar.OptionSetWriter(a.stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetDescription(desc),
				progressbar.OptionFullWidth(),
				progressbar.OptionClearOnFinish(),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]=[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
			)
		})
		bar.Add(1)
	}
	return func() {
		if bar != nil {
			bar.Finish()
		}
		v.Progress = nil
	}
}

// provider picks the epoch provider from command flags, falling back to the
// config file.
func (a *app) provider(cmd *cobra.Command) (epoch.Provider, error) {
	if est, _ := cmd.Flags().GetString("est"); est != "" {
		return epoch.EstFile(est), nil
	}
	if bin, _ := cmd.Flags().GetString("reaper"); bin != "" {
		return epoch.Reaper{Binary: bin, Logger: a.logger}, nil
	}
	return a.cfg.Provider(a.logger)
}

func (a *app) printf(w io.Writer, format string, args ...any) {
	if !a.quiet {
		fmt.Fprintf(w, format, args...)
	}
}
