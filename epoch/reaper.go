package epoch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/neurlang/magphase/audio"
)

// DefaultReaperBinary is looked up in PATH when Reaper.Binary is empty.
const DefaultReaperBinary = "reaper"

// Reaper runs the external REAPER epoch detector on a temporary 16 bit wav.
type Reaper struct {
	Binary string
	Logger *slog.Logger
}

// Epochs writes wave to a scratch directory, runs REAPER and parses its marks.
func (r Reaper) Epochs(ctx context.Context, wave []float64, sampleRate int) ([]Epoch, error) {
	bin := r.Binary
	if bin == "" {
		bin = DefaultReaperBinary
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dir, err := os.MkdirTemp("", "magphase-reaper-*")
	if err != nil {
		return nil, fmt.Errorf("epoch: reaper: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.wav")
	pm := filepath.Join(dir, "out.pm")
	if err := audio.Save(in, wave, sampleRate, 16); err != nil {
		return nil, fmt.Errorf("epoch: reaper: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin, "-i", in, "-p", pm, "-a")
	logger.Debug("running reaper", "bin", bin, "args", cmd.Args[1:])
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("epoch: reaper: %w: %s", err, bytes.TrimSpace(out))
	}

	f, err := os.Open(pm)
	if err != nil {
		return nil, fmt.Errorf("epoch: reaper: %w", err)
	}
	defer f.Close()
	epochs, err := ReadEst(f)
	if err != nil {
		return nil, fmt.Errorf("epoch: reaper: %w", err)
	}
	logger.Debug("reaper epochs", "count", len(epochs), "voiced", VoicedCount(epochs))
	return epochs, nil
}

// EstFile is a Provider reading precomputed marks from an .est file.
type EstFile string

// Epochs reads the file named by f.
func (f EstFile) Epochs(ctx context.Context, wave []float64, sampleRate int) ([]Epoch, error) {
	file, err := os.Open(string(f))
	if err != nil {
		return nil, fmt.Errorf("epoch: %w", err)
	}
	defer file.Close()
	return ReadEst(file)
}
