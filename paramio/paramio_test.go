package paramio

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurlang/magphase/magphase"
)

func randomSet(frames int) *magphase.ParameterSet {
	rng := rand.New(rand.NewSource(5))
	ps := magphase.NewParameterSet(16000, 64, frames)
	ps.NumSamples = 1234
	for t := 0; t < frames; t++ {
		if t%3 != 0 {
			ps.F0[t] = 80 + 200*rng.Float64()
		}
		for k := 0; k < ps.Bins(); k++ {
			ps.Mag[t][k] = 10 * rng.Float64()
			ph := 2 * math.Pi * (rng.Float64() - 0.5)
			ps.Real[t][k] = math.Cos(ph)
			ps.Imag[t][k] = math.Sin(ph)
		}
	}
	return ps
}

func TestRoundTrip(t *testing.T) {
	ps := randomSet(7)
	tolerance := map[Precision]float64{Float64: 0, Float32: 1e-6, Float16: 1e-2}

	for _, p := range []Precision{Float16, Float32, Float64} {
		t.Run(p.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, ps, p))

			got, gotP, err := Read(&buf)
			require.NoError(t, err)
			assert.Equal(t, p, gotP)
			assert.Equal(t, ps.SampleRate, got.SampleRate)
			assert.Equal(t, ps.FFTLen, got.FFTLen)
			assert.Equal(t, ps.NumSamples, got.NumSamples)
			require.Equal(t, ps.Frames(), got.Frames())

			tol := tolerance[p]
			for i := 0; i < ps.Frames(); i++ {
				assert.InEpsilon(t, ps.F0[i]+1, got.F0[i]+1, 1e-6, "f0 %d", i)
				assert.Equal(t, ps.F0[i] > 0, got.F0[i] > 0)
				for k := 0; k < ps.Bins(); k++ {
					assert.InDelta(t, ps.Mag[i][k], got.Mag[i][k], tol*10+1e-12)
					assert.InDelta(t, ps.Real[i][k], got.Real[i][k], tol+1e-12)
					assert.InDelta(t, ps.Imag[i][k], got.Imag[i][k], tol+1e-12)
				}
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.mgph")
	ps := randomSet(3)
	require.NoError(t, Save(path, ps, Float64))
	got, p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Float64, p)
	assert.Equal(t, ps, got)
}

func TestReadRejects(t *testing.T) {
	var good bytes.Buffer
	require.NoError(t, Write(&good, randomSet(2), Float32))
	raw := good.Bytes()

	t.Run("magic", func(t *testing.T) {
		bad := append([]byte("RIFF"), raw[4:]...)
		_, _, err := Read(bytes.NewReader(bad))
		assert.ErrorIs(t, err, ErrFormat)
	})
	t.Run("truncated", func(t *testing.T) {
		_, _, err := Read(bytes.NewReader(raw[:len(raw)-5]))
		assert.ErrorIs(t, err, ErrFormat)
		assert.ErrorIs(t, err, magphase.ErrInvalidParameterSet)
	})
	t.Run("trailing", func(t *testing.T) {
		_, _, err := Read(bytes.NewReader(append(append([]byte{}, raw...), 0)))
		assert.ErrorIs(t, err, magphase.ErrInvalidParameterSet)
	})
	t.Run("precision", func(t *testing.T) {
		bad := append([]byte{}, raw...)
		binary.LittleEndian.PutUint16(bad[6:], 24)
		_, _, err := Read(bytes.NewReader(bad))
		assert.ErrorIs(t, err, ErrFormat)
	})
	t.Run("huge header", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, Header{
			Magic: magic, Version: Version, Precision: Float64,
			SampleRate: 16000, FFTLen: 1 << 16, Frames: maxFrames,
		}))
		require.Equal(t, 28, buf.Len())
		_, _, err := Read(&buf)
		assert.ErrorIs(t, err, ErrFormat)
		assert.ErrorIs(t, err, magphase.ErrInvalidParameterSet)
	})
	t.Run("fft len", func(t *testing.T) {
		for _, n := range []uint32{1000, 1 << 20} {
			bad := append([]byte{}, raw...)
			binary.LittleEndian.PutUint32(bad[12:], n)
			_, _, err := Read(bytes.NewReader(bad))
			assert.ErrorIs(t, err, ErrFormat, "fft_len %d", n)
		}
	})
	t.Run("empty", func(t *testing.T) {
		_, _, err := Read(bytes.NewReader(nil))
		assert.ErrorIs(t, err, ErrFormat)
	})
}

func TestWriteRejectsInvalidSet(t *testing.T) {
	ps := randomSet(2)
	ps.F0 = ps.F0[:1]
	assert.ErrorIs(t, Write(&bytes.Buffer{}, ps, Float32), magphase.ErrInvalidParameterSet)
	assert.Error(t, Write(&bytes.Buffer{}, randomSet(1), Precision(8)))
}

func TestParsePrecision(t *testing.T) {
	for in, want := range map[string]Precision{"float16": Float16, "float32": Float32, "": Float32, "double": Float64} {
		got, err := ParsePrecision(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePrecision("int8")
	assert.Error(t, err)
}
