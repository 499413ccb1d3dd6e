package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions with no codec.
var ErrUnsupportedFormat = errors.New("audio: unsupported format")

// ErrEmpty is returned when a file decodes to zero samples.
var ErrEmpty = errors.New("audio: no samples")

// DefaultBitDepth is the PCM depth used when saving with a zero depth.
const DefaultBitDepth = 16

// Load reads a mono waveform and its sample rate from a .wav, .flac or .aiff file.
func Load(path string) ([]float64, int, error) {
	var (
		wave []float64
		sr   int
		err  error
	)
	switch ext(path) {
	case ".wav":
		wave, sr, err = loadWav(path)
	case ".flac":
		wave, sr, err = loadFlac(path)
	case ".aif", ".aiff":
		wave, sr, err = loadAiff(path)
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("audio: load %s: %w", path, err)
	}
	if len(wave) == 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrEmpty, path)
	}
	return wave, sr, nil
}

// Save writes wave as a mono PCM .wav or .aiff file with the given bit depth.
func Save(path string, wave []float64, sampleRate, bitDepth int) error {
	if bitDepth == 0 {
		bitDepth = DefaultBitDepth
	}
	if sampleRate <= 0 {
		return fmt.Errorf("audio: save %s: sample rate %d", path, sampleRate)
	}
	var err error
	switch ext(path) {
	case ".wav":
		err = saveWav(path, wave, sampleRate, bitDepth)
	case ".aif", ".aiff":
		err = saveAiff(path, wave, sampleRate, bitDepth)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return fmt.Errorf("audio: save %s: %w", path, err)
	}
	return nil
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// maxSigned returns the largest positive sample value for a signed PCM depth.
func maxSigned(bitDepth int) (int, error) {
	switch bitDepth {
	case 8, 16, 24, 32:
		return 1<<(bitDepth-1) - 1, nil
	}
	return 0, fmt.Errorf("unsupported bit depth %d", bitDepth)
}

// clip limits s to [-1, 1]. NaN becomes silence.
func clip(s float64) float64 {
	switch {
	case s > 1:
		return 1
	case s < -1:
		return -1
	case s != s:
		return 0
	}
	return s
}

// quantize scales a clipped sample to a signed integer of the given peak.
func quantize(s float64, peak int) int {
	return int(clip(s) * float64(peak))
}
