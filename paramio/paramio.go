package paramio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/mjibson/go-dsp/dsputils"
	"github.com/x448/float16"

	"github.com/neurlang/magphase/magphase"
)

// Version is the container version written by Write.
const Version = 1

// Precision is the storage width of spectral values in bits.
type Precision uint16

const (
	Float16 Precision = 16
	Float32 Precision = 32
	Float64 Precision = 64
)

// ParsePrecision maps "float16", "float32" and "float64" to a Precision.
func ParsePrecision(s string) (Precision, error) {
	switch s {
	case "float16", "half":
		return Float16, nil
	case "float32", "single", "":
		return Float32, nil
	case "float64", "double":
		return Float64, nil
	}
	return 0, fmt.Errorf("paramio: unknown precision %q", s)
}

func (p Precision) String() string {
	return fmt.Sprintf("float%d", uint16(p))
}

func (p Precision) valid() bool {
	return p == Float16 || p == Float32 || p == Float64
}

// Sanity bounds applied to headers before allocating.
const (
	maxFFTLen = 1 << 16
	maxFrames = 1 << 24
)

var magic = [4]byte{'M', 'G', 'P', 'H'}

// ErrFormat reports a file that is not a parameter container this package
// can read.
var ErrFormat = errors.New("paramio: bad format")

// Header is the fixed size file prefix.
type Header struct {
	Magic      [4]byte
	Version    uint16
	Precision  Precision
	SampleRate uint32
	FFTLen     uint32
	NumSamples uint64
	Frames     uint32
}

// Write stores ps at precision p.
func Write(w io.Writer, ps *magphase.ParameterSet, p Precision) error {
	if !p.valid() {
		return fmt.Errorf("paramio: unsupported precision %d", p)
	}
	if err := ps.Validate(); err != nil {
		return err
	}
	if ps.FFTLen > maxFFTLen || ps.Frames() > maxFrames {
		return fmt.Errorf("paramio: %d frames of fft_len %d exceed the format limits", ps.Frames(), ps.FFTLen)
	}
	bw := bufio.NewWriter(w)
	h := Header{
		Magic:      magic,
		Version:    Version,
		Precision:  p,
		SampleRate: uint32(ps.SampleRate),
		FFTLen:     uint32(ps.FFTLen),
		NumSamples: uint64(ps.NumSamples),
		Frames:     uint32(ps.Frames()),
	}
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return err
	}
	rec := make([]byte, recordSize(ps.Bins(), p))
	for t := 0; t < ps.Frames(); t++ {
		off := putF0(rec, ps.F0[t], p)
		for _, row := range [][]float64{ps.Mag[t], ps.Real[t], ps.Imag[t]} {
			off = putRow(rec, off, row, p)
		}
		if _, err := bw.Write(rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read loads a parameter set written by Write.
func Read(r io.Reader) (*magphase.ParameterSet, Precision, error) {
	br := bufio.NewReader(r)
	var h Header
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, 0, fmt.Errorf("%w: header: %w", ErrFormat, err)
	}
	if h.Magic != magic {
		return nil, 0, fmt.Errorf("%w: magic %q", ErrFormat, h.Magic[:])
	}
	if h.Version != Version {
		return nil, 0, fmt.Errorf("%w: version %d", ErrFormat, h.Version)
	}
	if !h.Precision.valid() {
		return nil, 0, fmt.Errorf("%w: precision %d", ErrFormat, h.Precision)
	}
	if h.FFTLen < 4 || h.FFTLen > maxFFTLen || !dsputils.IsPowerOf2(int(h.FFTLen)) {
		return nil, 0, fmt.Errorf("%w: %w: fft_len %d", ErrFormat, magphase.ErrInvalidParameterSet, h.FFTLen)
	}
	if h.Frames > maxFrames {
		return nil, 0, fmt.Errorf("%w: %d frames", ErrFormat, h.Frames)
	}

	ps := &magphase.ParameterSet{
		SampleRate: int(h.SampleRate),
		FFTLen:     int(h.FFTLen),
		NumSamples: int(h.NumSamples),
	}
	var (
		bins   = ps.Bins()
		frames = int(h.Frames)
		rows   = min(frames, blockFrames)
		rec    = make([]byte, recordSize(bins, h.Precision))
		mag    = arena{bins: bins}
		re     = arena{bins: bins}
		im     = arena{bins: bins}
	)
	ps.Mag = make([][]float64, 0, rows)
	ps.Real = make([][]float64, 0, rows)
	ps.Imag = make([][]float64, 0, rows)
	ps.F0 = make([]float64, 0, rows)
	for t := 0; t < frames; t++ {
		if _, err := io.ReadFull(br, rec); err != nil {
			return nil, 0, fmt.Errorf("%w: %w: frame %d of %d: %w", ErrFormat, magphase.ErrInvalidParameterSet, t, h.Frames, err)
		}
		f0, off := getF0(rec, h.Precision)
		ps.F0 = append(ps.F0, f0)
		ps.Mag = append(ps.Mag, mag.row())
		ps.Real = append(ps.Real, re.row())
		ps.Imag = append(ps.Imag, im.row())
		for _, row := range [][]float64{ps.Mag[t], ps.Real[t], ps.Imag[t]} {
			off = getRow(rec, off, row, h.Precision)
		}
	}
	if n, _ := br.Read(make([]byte, 1)); n > 0 {
		return nil, 0, fmt.Errorf("%w: %w: trailing data after %d frames", ErrFormat, magphase.ErrInvalidParameterSet, h.Frames)
	}
	if err := ps.Validate(); err != nil {
		return nil, 0, err
	}
	return ps, h.Precision, nil
}

// blockFrames is the number of rows an arena allocates at once, so memory
// follows the records actually read rather than the frame count a header
// claims.
const blockFrames = 256

// arena hands out rows of bins values carved from shared blocks.
type arena struct {
	bins int
	buf  []float64
}

func (a *arena) row() []float64 {
	if len(a.buf) < a.bins {
		a.buf = make([]float64, a.bins*blockFrames)
	}
	r := a.buf[:a.bins:a.bins]
	a.buf = a.buf[a.bins:]
	return r
}

// Save writes ps to the named file.
func Save(path string, ps *magphase.ParameterSet, p Precision) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, ps, p); err != nil {
		f.Close()
		return fmt.Errorf("paramio: %s: %w", path, err)
	}
	return f.Close()
}

// Load reads a parameter set from the named file.
func Load(path string) (*magphase.ParameterSet, Precision, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	ps, p, err := Read(f)
	if err != nil {
		return nil, 0, fmt.Errorf("paramio: %s: %w", path, err)
	}
	return ps, p, nil
}

func recordSize(bins int, p Precision) int {
	return f0Size(p) + 3*bins*int(p)/8
}

// f0Size is 8 bytes at double precision and 4 otherwise, so half precision
// files keep a usable F0.
func f0Size(p Precision) int {
	if p == Float64 {
		return 8
	}
	return 4
}

func putF0(buf []byte, f0 float64, p Precision) int {
	if p == Float64 {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(f0))
	} else {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(f0)))
	}
	return f0Size(p)
}

func getF0(buf []byte, p Precision) (float64, int) {
	if p == Float64 {
		return math.Float64frombits(binary.LittleEndian.Uint64(buf)), 8
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf))), 4
}

func putRow(buf []byte, off int, row []float64, p Precision) int {
	for _, v := range row {
		switch p {
		case Float16:
			binary.LittleEndian.PutUint16(buf[off:], float16.Fromfloat32(float32(v)).Bits())
			off += 2
		case Float32:
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(v)))
			off += 4
		case Float64:
			binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(v))
			off += 8
		}
	}
	return off
}

func getRow(buf []byte, off int, row []float64, p Precision) int {
	for k := range row {
		switch p {
		case Float16:
			row[k] = float64(float16.Frombits(binary.LittleEndian.Uint16(buf[off:])).Float32())
			off += 2
		case Float32:
			row[k] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])))
			off += 4
		case Float64:
			row[k] = math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
			off += 8
		}
	}
	return off
}
