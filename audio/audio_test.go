package audio

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n, sr int, hz float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*hz*float64(i)/float64(sr))
	}
	return out
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	wave := sine(4000, 16000, 220)

	for _, name := range []string{"tone.wav", "tone.aiff"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(path, wave, 16000, 16))

			got, sr, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, 16000, sr)
			require.Len(t, got, len(wave))
			for i := range wave {
				assert.InDelta(t, wave[i], got[i], 1e-3, "sample %d", i)
			}
		})
	}
}

func TestUnsupportedFormat(t *testing.T) {
	_, _, err := Load("voice.mp3")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	err = Save(filepath.Join(t.TempDir(), "voice.flac"), []float64{0}, 16000, 16)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSaveRejectsBadBitDepth(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "x.wav"), []float64{0, 0.1}, 16000, 12)
	assert.Error(t, err)
}

func TestClip(t *testing.T) {
	assert.Equal(t, 1.0, clip(3))
	assert.Equal(t, -1.0, clip(-3))
	assert.Equal(t, 0.0, clip(math.NaN()))
	assert.Equal(t, 0.25, clip(0.25))
	assert.Equal(t, 32767, quantize(2, 32767))
}
