// ABOUTME: Streaming linear resampler for converting audio sample rates
// ABOUTME: Carries the last input frame across chunks so chunk edges stay continuous
package resample

// Linear performs linear interpolation to convert between sample rates. It
// operates on interleaved float64 samples and keeps enough state that
// splitting the input into chunks does not change the output.
type Linear struct {
	channels int
	ratio    float64 // input frames per output frame
	position float64 // read position, relative to last when primed
	last     []float64
	primed   bool

	inFrames  int64
	outFrames int64
}

// NewLinear creates a new linear resampler
func NewLinear(inputRate, outputRate, channels int) *Linear {
	return &Linear{
		channels: channels,
		ratio:    float64(inputRate) / float64(outputRate),
		last:     make([]float64, channels),
	}
}

// Process converts one chunk of interleaved input samples.
func (r *Linear) Process(input []float64) ([]float64, error) {
	if len(input) == 0 {
		return nil, nil
	}
	r.inFrames += int64(len(input) / r.channels)

	buf := input
	if r.primed {
		buf = make([]float64, 0, len(r.last)+len(input))
		buf = append(buf, r.last...)
		buf = append(buf, input...)
	}
	return r.interpolate(buf, -1), nil
}

// Flush emits the output frames that fall between the last input frame and
// the end of the stream.
func (r *Linear) Flush() ([]float64, error) {
	if !r.primed {
		return nil, nil
	}
	want := int64(float64(r.inFrames)/r.ratio+0.5) - r.outFrames
	if want <= 0 {
		return nil, nil
	}

	// Hold the last frame so interpolation has a right neighbour
	buf := make([]float64, 0, 2*r.channels)
	buf = append(buf, r.last...)
	buf = append(buf, r.last...)
	return r.interpolate(buf, int(want)), nil
}

// interpolate produces output frames from buf until input runs out or limit
// frames were produced (limit < 0 means no limit), then keeps the final frame.
func (r *Linear) interpolate(buf []float64, limit int) []float64 {
	frames := len(buf) / r.channels
	var output []float64

	for limit != 0 {
		inputIdx := int(r.position)

		// If we've consumed all input, stop
		if inputIdx >= frames-1 {
			break
		}

		// Linear interpolation factor
		frac := r.position - float64(inputIdx)

		for ch := 0; ch < r.channels; ch++ {
			sample1 := buf[inputIdx*r.channels+ch]
			sample2 := buf[(inputIdx+1)*r.channels+ch]
			output = append(output, sample1*(1.0-frac)+sample2*frac)
		}

		r.outFrames++
		r.position += r.ratio
		limit--
	}

	// Rebase position onto the retained last frame
	r.position -= float64(frames - 1)
	if r.position < 0 {
		r.position = 0
	}
	copy(r.last, buf[(frames-1)*r.channels:])
	r.primed = true

	return output
}
