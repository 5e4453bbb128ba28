// ABOUTME: Encoder interface definition
// ABOUTME: Common push/take/flush contract for all audio encoders
package encode

import (
	"errors"
	"fmt"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
)

// errFlushed is returned when a frame is pushed after end of stream.
var errFlushed = errors.New("encoder already flushed")

// Encoder turns frames of exactly SamplesPerFrame samples into packets. Packet
// timestamps are in the encoder time base, 1/SampleRate.
type Encoder interface {
	// Push feeds one frame; only the final frame before Flush may be short
	Push(frame audio.Frame) error

	// Take returns the next encoded packet, ok is false when none is buffered
	Take() (pkt audio.Packet, ok bool, err error)

	// Flush signals end of stream; trailing packets become available to Take
	Flush() error

	// SamplesPerFrame is the fixed number of samples per channel each frame must hold
	SamplesPerFrame() int

	// CodecParameters returns the finalized output parameters
	CodecParameters() audio.CodecParameters

	// Close releases encoder resources
	Close() error
}

// New creates an encoder for the codec named in params.
func New(params audio.CodecParameters) (Encoder, error) {
	switch params.Codec {
	case audio.CodecPCM:
		return asEncoder(NewPCM(params))
	case audio.CodecOpus:
		return asEncoder(NewOpus(params))
	case audio.CodecFLAC:
		return asEncoder(NewFLAC(params))
	default:
		return nil, fmt.Errorf("%w encoder codec: %q", audio.ErrUnsupported, params.Codec)
	}
}

func asEncoder[E Encoder](e E, err error) (Encoder, error) {
	if err != nil {
		return nil, err
	}
	return e, nil
}

// packetQueue buffers encoded packets between Push and Take.
type packetQueue struct {
	packets []audio.Packet
	flushed bool
}

func (q *packetQueue) push(p audio.Packet) {
	q.packets = append(q.packets, p)
}

// Take returns the oldest buffered packet.
func (q *packetQueue) Take() (audio.Packet, bool, error) {
	if len(q.packets) == 0 {
		return audio.Packet{}, false, nil
	}
	p := q.packets[0]
	q.packets[0] = audio.Packet{}
	q.packets = q.packets[1:]
	return p, true, nil
}

func (q *packetQueue) checkOpen() error {
	if q.flushed {
		return errFlushed
	}
	return nil
}

// defaultFrameSamples is 20ms, the frame size used for codecs without a
// mandated one.
func defaultFrameSamples(sampleRate int) int {
	return sampleRate / 50
}

func checkFrame(frame audio.Frame, channels, frameSamples int) error {
	if frame.Channels != channels {
		return fmt.Errorf("frame has %d channels, encoder expects %d", frame.Channels, channels)
	}
	if n := frame.NumSamples(); n == 0 || n > frameSamples {
		return fmt.Errorf("frame has %d samples, encoder expects at most %d", n, frameSamples)
	}
	return nil
}
