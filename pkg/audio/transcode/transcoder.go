// ABOUTME: Audio transcoder chaining decode, resample and encode stages
// ABOUTME: Enforces the take-before-push protocol and rebuilds output timestamps
package transcode

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
	"github.com/Sendspin/sendspin-transcode/pkg/audio/decode"
	"github.com/Sendspin/sendspin-transcode/pkg/audio/encode"
	"github.com/Sendspin/sendspin-transcode/pkg/audio/resample"
)

// mode tracks where the transcoder is in the push/take cycle.
type mode int

const (
	// modeIdle accepts Push and Flush
	modeIdle mode = iota
	// modeOutputPending holds packets the caller has not taken yet
	modeOutputPending
)

func (m mode) String() string {
	switch m {
	case modeIdle:
		return "idle"
	case modeOutputPending:
		return "output-pending"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Transcoder converts packets of one codec and format into packets of
// another. It is not safe for concurrent use.
//
// After every Push or Flush the caller must Take until ok is false; pushing
// or flushing while packets are pending fails with audio.ErrAgain.
type Transcoder struct {
	decoder   decode.Decoder
	resampler resample.Resampler
	encoder   encode.Encoder

	ready         []audio.Packet
	mode          mode
	outputSamples uint64
	outputRate    int

	log *logrus.Entry
}

// Option configures a Transcoder.
type Option func(*options)

type options struct {
	log     *logrus.Entry
	quality resample.Quality
}

// WithLogger sets the log entry used by the transcoder.
func WithLogger(log *logrus.Entry) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithResampleQuality selects the rate conversion algorithm used when input
// and output sample rates differ.
func WithResampleQuality(q resample.Quality) Option {
	return func(o *options) {
		o.quality = q
	}
}

func buildOptions(opts []Option) options {
	o := options{
		log:     logrus.NewEntry(logrus.StandardLogger()),
		quality: resample.DefaultQuality,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = o.log.WithField("session", uuid.New().String())
	return o
}

// New builds a transcoder from input to output parameters, creating the
// decoder, resampler and encoder for them.
func New(input, output audio.CodecParameters, opts ...Option) (*Transcoder, error) {
	o := buildOptions(opts)
	log := o.log.WithField("function", "New")

	dec, err := decode.New(input)
	if err != nil {
		log.WithError(err).Error("Failed to create decoder")
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	enc, err := encode.New(output)
	if err != nil {
		_ = dec.Close()
		log.WithError(err).Error("Failed to create encoder")
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	res, err := resample.New(resample.Config{
		Source:       input,
		Target:       output,
		FrameSamples: enc.SamplesPerFrame(),
		Quality:      o.quality,
	})
	if err != nil {
		_ = dec.Close()
		_ = enc.Close()
		log.WithError(err).Error("Failed to create resampler")
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	log.WithFields(logrus.Fields{
		"input_codec":  input.Codec,
		"input_rate":   input.SampleRate,
		"output_codec": output.Codec,
		"output_rate":  output.SampleRate,
		"frame_size":   enc.SamplesPerFrame(),
		"quality":      o.quality,
	}).Info("Created transcoder")

	return newTranscoder(dec, res, enc, o), nil
}

// NewFromEngines builds a transcoder around caller-supplied engines. The
// resampler must emit frames of enc.SamplesPerFrame() samples.
func NewFromEngines(dec decode.Decoder, res resample.Resampler, enc encode.Encoder, opts ...Option) (*Transcoder, error) {
	if dec == nil || res == nil || enc == nil {
		return nil, fmt.Errorf("decoder, resampler and encoder are required")
	}
	return newTranscoder(dec, res, enc, buildOptions(opts)), nil
}

func newTranscoder(dec decode.Decoder, res resample.Resampler, enc encode.Encoder, o options) *Transcoder {
	return &Transcoder{
		decoder:    dec,
		resampler:  res,
		encoder:    enc,
		mode:       modeIdle,
		outputRate: enc.CodecParameters().SampleRate,
		log:        o.log,
	}
}

// Push decodes one packet and queues any packets the encoder produced.
func (t *Transcoder) Push(pkt audio.Packet) error {
	if t.mode == modeOutputPending {
		t.log.WithFields(logrus.Fields{
			"function": "Push",
			"pending":  len(t.ready),
		}).Debug("Push rejected with output pending")
		return fmt.Errorf("take all transcoded packets before pushing another packet for transcoding: %w", audio.ErrAgain)
	}

	err := t.push(pkt)
	t.updateMode()
	if err != nil {
		t.log.WithFields(logrus.Fields{
			"function": "Push",
			"pts":      pkt.PTS,
		}).WithError(err).Error("Transcode failed")
		return err
	}
	return nil
}

func (t *Transcoder) push(pkt audio.Packet) error {
	if err := t.decoder.Push(pkt); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return drain(t.decoder.Take, t.decoded)
}

// Flush drains the decoder, resampler and encoder in order. Each stage is
// emptied before the next one is flushed.
func (t *Transcoder) Flush() error {
	if t.mode == modeOutputPending {
		t.log.WithFields(logrus.Fields{
			"function": "Flush",
			"pending":  len(t.ready),
		}).Debug("Flush rejected with output pending")
		return fmt.Errorf("take all transcoded packets before flushing the transcoder: %w", audio.ErrAgain)
	}

	err := t.flush()
	t.updateMode()
	if err != nil {
		t.log.WithField("function", "Flush").WithError(err).Error("Flush failed")
		return err
	}

	t.log.WithFields(logrus.Fields{
		"function":       "Flush",
		"output_samples": t.outputSamples,
		"pending":        len(t.ready),
	}).Debug("Flushed transcoder")
	return nil
}

func (t *Transcoder) flush() error {
	if err := t.decoder.Flush(); err != nil {
		return fmt.Errorf("decode flush: %w", err)
	}
	// Frames released by a decoder flush bypass the padding filter
	if err := drain(t.decoder.Take, t.resample); err != nil {
		return err
	}

	if err := t.resampler.Flush(); err != nil {
		return fmt.Errorf("resample flush: %w", err)
	}
	if err := drain(t.resampler.Take, t.encode); err != nil {
		return err
	}

	if err := t.encoder.Flush(); err != nil {
		return fmt.Errorf("encode flush: %w", err)
	}
	return drain(t.encoder.Take, t.output)
}

// Take returns the oldest transcoded packet; ok is false when none is queued.
func (t *Transcoder) Take() (audio.Packet, bool) {
	if len(t.ready) == 0 {
		return audio.Packet{}, false
	}
	pkt := t.ready[0]
	t.ready[0] = audio.Packet{}
	t.ready = t.ready[1:]
	t.updateMode()
	return pkt, true
}

// CodecParameters returns the parameters finalized by the encoder, including
// any codec header.
func (t *Transcoder) CodecParameters() audio.CodecParameters {
	return t.encoder.CodecParameters()
}

// Pending returns the number of packets waiting to be taken.
func (t *Transcoder) Pending() int {
	return len(t.ready)
}

// OutputSamples returns the number of samples per channel fed to the encoder.
func (t *Transcoder) OutputSamples() uint64 {
	return t.outputSamples
}

// Close releases the decoder and encoder.
func (t *Transcoder) Close() error {
	decErr := t.decoder.Close()
	encErr := t.encoder.Close()
	if decErr != nil {
		return fmt.Errorf("failed to close decoder: %w", decErr)
	}
	if encErr != nil {
		return fmt.Errorf("failed to close encoder: %w", encErr)
	}
	return nil
}

// decoded forwards a decoder frame, dropping codec padding. Padding frames
// are recognised only by a negative timestamp; a frame straddling zero is
// kept whole.
func (t *Transcoder) decoded(frame audio.Frame) error {
	if frame.PTS < 0 {
		return nil
	}
	return t.resample(frame)
}

func (t *Transcoder) resample(frame audio.Frame) error {
	if err := t.resampler.Push(frame); err != nil {
		return fmt.Errorf("resample: %w", err)
	}
	return drain(t.resampler.Take, t.encode)
}

// encode stamps the frame with the running sample count so output timestamps
// stay contiguous regardless of input timing.
func (t *Transcoder) encode(frame audio.Frame) error {
	frame = frame.WithPTS(int64(t.outputSamples))
	if err := t.encoder.Push(frame); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	t.outputSamples += uint64(frame.NumSamples())
	return drain(t.encoder.Take, t.output)
}

// output converts an encoder packet to the microsecond time base and queues it.
func (t *Transcoder) output(pkt audio.Packet) error {
	ts := audio.Rescale(pkt.PTS, audio.Rational{Num: 1, Den: t.outputRate}, audio.Microseconds)
	t.ready = append(t.ready, pkt.
		WithPTS(ts).
		WithDTS(ts).
		WithStreamIndex(0).
		WithTimeBase(audio.Microseconds))
	return nil
}

func (t *Transcoder) updateMode() {
	if len(t.ready) > 0 {
		t.mode = modeOutputPending
	} else {
		t.mode = modeIdle
	}
}

// drain takes items from a stage until it reports none left, forwarding each
// to the next stage. The first error from either side stops the drain.
func drain[T any](take func() (T, bool, error), forward func(T) error) error {
	for {
		item, ok, err := take()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := forward(item); err != nil {
			return err
		}
	}
}
