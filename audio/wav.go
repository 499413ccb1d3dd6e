package audio

import "fmt"
import "os"

import "github.com/faiface/beep"
import "github.com/faiface/beep/wav"

func loadWav(name string) (out []float64, sr int, err error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	stream, format, err := wav.Decode(file)
	if err != nil {
		return nil, 0, err
	}
	defer stream.Close()

	var samples = make([][2]float64, 512)
	for {
		n, ok := stream.Stream(samples)
		for i := 0; i < n; i++ {
			if format.NumChannels > 1 {
				out = append(out, 0.5*(samples[i][0]+samples[i][1]))
			} else {
				out = append(out, samples[i][0])
			}
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, 0, err
	}
	return out, int(format.SampleRate), nil
}

func saveWav(name string, vec []float64, sr, bitDepth int) error {
	if bitDepth != 8 && bitDepth != 16 && bitDepth != 24 {
		return fmt.Errorf("wav: unsupported bit depth %d", bitDepth)
	}
	file, err := os.Create(name)
	if err != nil {
		return err
	}

	var pos int
	streamer := beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		for n = range samples {
			if pos >= len(vec) {
				return n, n > 0
			}
			s := clip(vec[pos])
			samples[n][0], samples[n][1] = s, s
			pos++
		}
		return len(samples), true
	})

	format := beep.Format{
		SampleRate:  beep.SampleRate(sr),
		NumChannels: 1,
		Precision:   bitDepth / 8,
	}
	if err := wav.Encode(file, streamer, format); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
