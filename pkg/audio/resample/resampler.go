// ABOUTME: Frame resampler converting layout, sample format and rate
// ABOUTME: Re-frames output to the fixed frame size the encoder requires
package resample

import (
	"errors"
	"fmt"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
)

var errFlushed = errors.New("resampler already flushed")

// Resampler converts decoded frames from a source layout, sample format and
// rate to a target one, emitting frames of a fixed size.
type Resampler interface {
	// Push feeds one decoded frame
	Push(frame audio.Frame) error

	// Take returns the next converted frame, ok is false when none is ready
	Take() (frame audio.Frame, ok bool, err error)

	// Flush signals end of stream; buffered samples become available as a
	// final, possibly short, frame
	Flush() error
}

// rateConverter is a streaming sample rate converter over interleaved
// float64 samples.
type rateConverter interface {
	Process(input []float64) ([]float64, error)
	Flush() ([]float64, error)
}

// Config holds configuration for creating a resampler
type Config struct {
	Source       audio.CodecParameters // channels, bit depth and rate of input frames
	Target       audio.CodecParameters // channels, bit depth and rate of output frames
	FrameSamples int                   // samples per channel of every output frame
	Quality      Quality               // rate conversion algorithm, default QualityHigh
}

// Converter is the Resampler used by the transcoder.
type Converter struct {
	cfg  Config
	rate rateConverter // nil when source and target rates match

	fifo    []int32 // interleaved target-format samples not yet framed
	ready   []audio.Frame
	nextPTS int64
	flushed bool
}

// New creates a new resampler
func New(cfg Config) (*Converter, error) {
	src, dst := cfg.Source, cfg.Target
	if src.SampleRate <= 0 || dst.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: input=%d, output=%d", src.SampleRate, dst.SampleRate)
	}
	if src.Channels < 1 || dst.Channels < 1 {
		return nil, fmt.Errorf("invalid channel counts: input=%d, output=%d", src.Channels, dst.Channels)
	}
	if err := checkRemix(src.Channels, dst.Channels); err != nil {
		return nil, err
	}
	if dst.BitDepth != 0 && dst.BitDepth != 16 && dst.BitDepth != 24 {
		return nil, fmt.Errorf("%w target bit depth: %d", audio.ErrUnsupported, dst.BitDepth)
	}
	if cfg.FrameSamples <= 0 {
		return nil, fmt.Errorf("invalid frame size: %d", cfg.FrameSamples)
	}

	c := &Converter{cfg: cfg}

	if src.SampleRate != dst.SampleRate {
		if cfg.Quality == QualityLinear {
			c.rate = NewLinear(src.SampleRate, dst.SampleRate, dst.Channels)
		} else {
			sinc, err := NewSinc(src.SampleRate, dst.SampleRate, dst.Channels, cfg.Quality)
			if err != nil {
				return nil, err
			}
			c.rate = sinc
		}
	}

	return c, nil
}

// Push converts one frame and buffers the result
func (c *Converter) Push(frame audio.Frame) error {
	if c.flushed {
		return errFlushed
	}
	if frame.Channels != c.cfg.Source.Channels || frame.SampleRate != c.cfg.Source.SampleRate {
		return fmt.Errorf("frame format %d Hz/%d ch does not match resampler input %d Hz/%d ch",
			frame.SampleRate, frame.Channels, c.cfg.Source.SampleRate, c.cfg.Source.Channels)
	}

	samples := remix(frame.Samples, c.cfg.Source.Channels, c.cfg.Target.Channels)

	if c.rate != nil {
		out, err := c.rate.Process(toFloat(samples))
		if err != nil {
			return err
		}
		samples = fromFloat(out)
	}

	c.enqueue(samples)
	return nil
}

// Flush drains the rate converter and releases the remaining samples as a
// final short frame.
func (c *Converter) Flush() error {
	if c.flushed {
		return nil
	}
	c.flushed = true

	if c.rate != nil {
		out, err := c.rate.Flush()
		if err != nil {
			return err
		}
		c.enqueue(fromFloat(out))
	}

	if len(c.fifo) > 0 {
		c.emit(c.fifo)
		c.fifo = nil
	}
	return nil
}

// Take returns the oldest complete frame
func (c *Converter) Take() (audio.Frame, bool, error) {
	if len(c.ready) == 0 {
		return audio.Frame{}, false, nil
	}
	f := c.ready[0]
	c.ready[0] = audio.Frame{}
	c.ready = c.ready[1:]
	return f, true, nil
}

// enqueue reformats samples to the target bit depth and cuts complete frames.
func (c *Converter) enqueue(samples []int32) {
	if bits := c.cfg.Target.BitDepth; bits != 0 && bits < 24 {
		samples = quantize(samples, bits)
	}
	c.fifo = append(c.fifo, samples...)

	frameLen := c.cfg.FrameSamples * c.cfg.Target.Channels
	for len(c.fifo) >= frameLen {
		out := make([]int32, frameLen)
		copy(out, c.fifo[:frameLen])
		c.emit(out)
		c.fifo = c.fifo[frameLen:]
	}

	// Compact so the backing array does not grow without bound
	if len(c.fifo) > 0 && cap(c.fifo) > 4*frameLen {
		c.fifo = append([]int32(nil), c.fifo...)
	}
}

func (c *Converter) emit(samples []int32) {
	f := audio.Frame{
		Samples:    samples,
		PTS:        c.nextPTS,
		SampleRate: c.cfg.Target.SampleRate,
		Channels:   c.cfg.Target.Channels,
	}
	c.nextPTS += int64(f.NumSamples())
	c.ready = append(c.ready, f)
}

// quantize drops precision below the target bit depth, keeping the 24-bit
// range so downstream stages see the same scale.
func quantize(samples []int32, bits int) []int32 {
	out := make([]int32, len(samples))
	for i, s := range samples {
		out[i] = audio.SampleFromBits(audio.SampleToBits(s, bits), bits)
	}
	return out
}

func toFloat(samples []int32) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s) / (audio.Max24Bit + 1)
	}
	return out
}

func fromFloat(samples []float64) []int32 {
	out := make([]int32, len(samples))
	for i, s := range samples {
		out[i] = audio.Clamp24(int64(s * (audio.Max24Bit + 1)))
	}
	return out
}
