package epoch

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const estHeaderEnd = "EST_Header_End"

// ReadEst parses pitch marks in the REAPER ASCII .est format. Each data row
// holds a time in seconds, a voicing flag and an optional value. A file
// without a header is read as bare rows.
func ReadEst(r io.Reader) ([]Epoch, error) {
	var (
		out     []Epoch
		scanner = bufio.NewScanner(r)
		header  = true
		seen    bool
		line    int
	)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, ";") {
			continue
		}
		if header {
			if text == estHeaderEnd {
				header = false
				continue
			}
			if seen || strings.HasPrefix(text, "EST_File") {
				seen = true
				continue
			}
			header = false
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: est line %d: want time and voicing, got %q", ErrInvalidEpochs, line, text)
		}
		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: est line %d: %w", ErrInvalidEpochs, line, err)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: est line %d: %w", ErrInvalidEpochs, line, err)
		}
		out = append(out, Epoch{Time: t, Voiced: v != 0})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteEst writes epochs in the REAPER ASCII .est pitch mark format.
func WriteEst(w io.Writer, epochs []Epoch) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "EST_File Track")
	fmt.Fprintln(bw, "DataType ascii")
	fmt.Fprintf(bw, "NumFrames %d\n", len(epochs))
	fmt.Fprintln(bw, "NumChannels 0")
	fmt.Fprintln(bw, "NumAuxChannels 0")
	fmt.Fprintln(bw, "EqualSpace 0")
	fmt.Fprintln(bw, "BreaksPresent true")
	fmt.Fprintln(bw, estHeaderEnd)
	for _, e := range epochs {
		var v int
		if e.Voiced {
			v = 1
		}
		fmt.Fprintf(bw, "%.6f %d -1\n", e.Time, v)
	}
	return bw.Flush()
}
