// ABOUTME: Decoder interface definition
// ABOUTME: Common push/take/flush contract for all audio decoders
package decode

import (
	"errors"
	"fmt"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
)

// errFlushed is returned when a packet is pushed after end of stream.
var errFlushed = errors.New("decoder already flushed")

// Decoder turns encoded packets into frames. A single packet may produce any
// number of frames; callers Take until ok is false after every Push and
// after Flush.
type Decoder interface {
	// Push feeds one encoded packet
	Push(pkt audio.Packet) error

	// Take returns the next decoded frame, ok is false when none is buffered
	Take() (frame audio.Frame, ok bool, err error)

	// Flush signals end of stream; remaining frames become available to Take
	Flush() error

	// Close releases decoder resources
	Close() error
}

// New creates a decoder for the codec named in params.
func New(params audio.CodecParameters) (Decoder, error) {
	switch params.Codec {
	case audio.CodecPCM:
		return asDecoder(NewPCM(params))
	case audio.CodecOpus:
		return asDecoder(NewOpus(params))
	case audio.CodecFLAC:
		return asDecoder(NewFLAC(params))
	default:
		return nil, fmt.Errorf("%w decoder codec: %q", audio.ErrUnsupported, params.Codec)
	}
}

// asDecoder keeps a failed constructor's typed nil out of the interface.
func asDecoder[D Decoder](d D, err error) (Decoder, error) {
	if err != nil {
		return nil, err
	}
	return d, nil
}

// frameQueue buffers decoded frames between Push and Take.
type frameQueue struct {
	frames  []audio.Frame
	flushed bool
}

func (q *frameQueue) push(f audio.Frame) {
	q.frames = append(q.frames, f)
}

// Take returns the oldest buffered frame.
func (q *frameQueue) Take() (audio.Frame, bool, error) {
	if len(q.frames) == 0 {
		return audio.Frame{}, false, nil
	}
	f := q.frames[0]
	q.frames[0] = audio.Frame{}
	q.frames = q.frames[1:]
	return f, true, nil
}

// Flush marks end of stream. Decoders in this package emit frames eagerly,
// so there is nothing left to drain.
func (q *frameQueue) Flush() error {
	q.flushed = true
	return nil
}

func (q *frameQueue) checkOpen() error {
	if q.flushed {
		return errFlushed
	}
	return nil
}

// framePTS converts a packet timestamp to samples at sampleRate.
func framePTS(pkt audio.Packet, sampleRate int) int64 {
	if pkt.TimeBase.IsZero() {
		return pkt.PTS
	}
	return audio.Rescale(pkt.PTS, pkt.TimeBase, audio.Rational{Num: 1, Den: sampleRate})
}
