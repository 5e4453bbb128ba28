// ABOUTME: Band-limited sample rate conversion backed by go-audio-resampling
// ABOUTME: Runs one mono polyphase FIR resampler per channel and re-interleaves
package resample

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Sinc converts interleaved audio with a go-audio-resampling instance per
// channel. The library's Process and Flush filter a single channel, so
// channels are split before filtering.
type Sinc struct {
	resamplers []resampling.Resampler
	pending    [][]float64 // per-channel output not yet interleaved
}

// NewSinc creates a band-limited resampler for interleaved input.
func NewSinc(inputRate, outputRate, channels int, quality Quality) (*Sinc, error) {
	spec, err := quality.spec()
	if err != nil {
		return nil, err
	}

	s := &Sinc{
		resamplers: make([]resampling.Resampler, channels),
		pending:    make([][]float64, channels),
	}
	for ch := range s.resamplers {
		config := &resampling.Config{
			InputRate:  float64(inputRate),
			OutputRate: float64(outputRate),
			Channels:   1,
			Quality:    spec,
		}
		r, err := resampling.New(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create resampler: %w", err)
		}
		s.resamplers[ch] = r
	}

	return s, nil
}

// Process converts one chunk of interleaved samples
func (s *Sinc) Process(input []float64) ([]float64, error) {
	channels := len(s.resamplers)
	for ch, r := range s.resamplers {
		out, err := r.Process(deinterleave(input, ch, channels))
		if err != nil {
			return nil, fmt.Errorf("resample error: %w", err)
		}
		s.pending[ch] = append(s.pending[ch], out...)
	}
	return s.interleave(false), nil
}

// Flush drains every channel's filter delay line
func (s *Sinc) Flush() ([]float64, error) {
	for ch, r := range s.resamplers {
		out, err := r.Flush()
		if err != nil {
			return nil, fmt.Errorf("resample flush error: %w", err)
		}
		s.pending[ch] = append(s.pending[ch], out...)
	}
	return s.interleave(true), nil
}

// interleave emits the frames every channel has produced. At end of stream
// a channel that came up short is padded with silence.
func (s *Sinc) interleave(final bool) []float64 {
	n := len(s.pending[0])
	for _, p := range s.pending[1:] {
		if final {
			n = max(n, len(p))
		} else {
			n = min(n, len(p))
		}
	}
	if n == 0 {
		return nil
	}

	channels := len(s.pending)
	out := make([]float64, n*channels)
	for ch, p := range s.pending {
		for i := 0; i < n && i < len(p); i++ {
			out[i*channels+ch] = p[i]
		}
		if len(p) > n {
			s.pending[ch] = append(p[:0], p[n:]...)
		} else {
			s.pending[ch] = p[:0]
		}
	}
	return out
}

func deinterleave(input []float64, ch, channels int) []float64 {
	out := make([]float64, len(input)/channels)
	for i := range out {
		out[i] = input[i*channels+ch]
	}
	return out
}
