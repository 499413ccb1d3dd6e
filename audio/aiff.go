package audio

import (
	"errors"
	"io"
	"os"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
)

// aiffChunk is the number of sample frames decoded per PCMBuffer call.
const aiffChunk = 4096

func loadAiff(name string) (out []float64, sr int, err error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	decoder := aiff.NewDecoder(file)
	decoder.ReadInfo()
	if decoder.NumChans == 0 {
		return nil, 0, errors.New("aiff decoder reports no channels")
	}
	if decoder.SampleRate == 0 {
		return nil, 0, errors.New("aiff decoder reports zero sample rate")
	}
	peak, err := maxSigned(int(decoder.BitDepth))
	if err != nil {
		return nil, 0, err
	}

	chans := int(decoder.NumChans)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: chans,
			SampleRate:  int(decoder.SampleRate),
		},
		Data:           make([]int, aiffChunk*chans),
		SourceBitDepth: int(decoder.BitDepth),
	}
	for {
		n, err := decoder.PCMBuffer(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		if n == 0 {
			break
		}
		for i := 0; i+chans <= n; i += chans {
			var sum int
			for ch := 0; ch < chans; ch++ {
				sum += buf.Data[i+ch]
			}
			out = append(out, float64(sum)/float64(chans*peak))
		}
	}
	return out, int(decoder.SampleRate), nil
}

func saveAiff(name string, vec []float64, sr, bitDepth int) error {
	peak, err := maxSigned(bitDepth)
	if err != nil {
		return err
	}
	file, err := os.Create(name)
	if err != nil {
		return err
	}

	encoder := aiff.NewEncoder(file, sr, bitDepth, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  sr,
		},
		Data:           make([]int, len(vec)),
		SourceBitDepth: bitDepth,
	}
	for i, s := range vec {
		buf.Data[i] = quantize(s, peak)
	}
	if err := encoder.Write(buf); err != nil {
		encoder.Close()
		file.Close()
		return err
	}
	if err := encoder.Close(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
