package audio

import (
	"errors"
	"io"

	"github.com/mewkiz/flac"
)

func loadFlac(name string) (out []float64, sr int, err error) {
	stream, err := flac.ParseFile(name)
	if err != nil {
		return nil, 0, err
	}
	defer stream.Close()

	var (
		chans = int(stream.Info.NChannels)
		scale = 1 / float64(int64(1)<<(stream.Info.BitsPerSample-1))
	)
	if chans == 0 {
		return nil, 0, errors.New("flac stream has no channels")
	}
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			var sum float64
			for ch := 0; ch < chans; ch++ {
				sum += float64(frame.Subframes[ch].Samples[i])
			}
			out = append(out, sum*scale/float64(chans))
		}
	}
	return out, int(stream.Info.SampleRate), nil
}
