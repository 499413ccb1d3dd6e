package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurlang/magphase/epoch"
	"github.com/neurlang/magphase/magphase"
)

func TestLoadFromReaderDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromReaderOverrides(t *testing.T) {
	const doc = `
log_level: debug
vocoder:
  fft_len: 2048
  backend: gonum
  smooth_f0: false
epochs:
  provider: est
  est_file: marks.est
output:
  precision: float16
  bit_depth: 24
`
	cfg, err := LoadFromReader(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, LogLevel("debug"), cfg.LogLevel)
	assert.Equal(t, 2048, cfg.Vocoder.FFTLen)
	assert.Equal(t, magphase.BackendGonum, cfg.Vocoder.Backend)
	assert.False(t, cfg.Vocoder.SmoothF0)
	assert.Equal(t, 500.0, cfg.Vocoder.MaxF0, "unset keys keep defaults")
	assert.Equal(t, 24, cfg.Output.BitDepth)

	p, err := cfg.Provider(slog.Default())
	require.NoError(t, err)
	assert.Equal(t, epoch.EstFile("marks.est"), p)
}

func TestLoadFromReaderUnknownKey(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("vocoder:\n  fftlen: 1024\n"))
	assert.Error(t, err)
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	cfg.Vocoder.FFTLen = 1000
	cfg.Epochs.Provider = "crepe"
	cfg.Output.BitDepth = 12

	err := Validate(cfg)
	require.Error(t, err)
	for _, want := range []string{"log_level", "fft_len", "epochs.provider", "bit_depth"} {
		assert.ErrorContains(t, err, want)
	}
	assert.ErrorIs(t, err, magphase.ErrInvalidInput)
}

func TestValidateEstNeedsFile(t *testing.T) {
	cfg := Default()
	cfg.Epochs.Provider = ProviderEst
	assert.ErrorContains(t, Validate(cfg), "est_file")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "magphase.yaml")
	require.NoError(t, os.WriteFile(path, []byte("epochs:\n  provider: reaper\n  reaper_bin: /opt/reaper\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	p, err := cfg.Provider(nil)
	require.NoError(t, err)
	assert.Equal(t, epoch.Reaper{Binary: "/opt/reaper"}, p)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestTrackerProviderUsesVocoderRange(t *testing.T) {
	cfg := Default()
	cfg.Vocoder.MinF0, cfg.Vocoder.MaxF0 = 70, 400
	p, err := cfg.Provider(nil)
	require.NoError(t, err)
	tr, ok := p.(*epoch.Tracker)
	require.True(t, ok)
	assert.Equal(t, 70.0, tr.MinF0)
	assert.Equal(t, 400.0, tr.MaxF0)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LogLevel("debug").Level())
	assert.Equal(t, slog.LevelInfo, LogLevel("").Level())
	assert.False(t, LogLevel("trace").IsValid())
}
