// ABOUTME: PCM audio encoder
// ABOUTME: Encodes int32 frames to 16-bit or 24-bit little-endian PCM packets
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
)

// PCMEncoder encodes PCM audio
type PCMEncoder struct {
	packetQueue
	params       audio.CodecParameters
	frameSamples int
}

// NewPCM creates a new PCM encoder
func NewPCM(params audio.CodecParameters) (*PCMEncoder, error) {
	if params.Codec != audio.CodecPCM {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", params.Codec)
	}

	if params.BitDepth != 16 && params.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", params.BitDepth)
	}

	if params.Channels < 1 || params.SampleRate < 50 {
		return nil, fmt.Errorf("invalid PCM layout: %d Hz, %d channels", params.SampleRate, params.Channels)
	}

	return &PCMEncoder{
		params:       params,
		frameSamples: defaultFrameSamples(params.SampleRate),
	}, nil
}

// Push encodes one frame
func (e *PCMEncoder) Push(frame audio.Frame) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if err := checkFrame(frame, e.params.Channels, e.frameSamples); err != nil {
		return err
	}

	e.push(audio.Packet{
		Data:     e.encode(frame.Samples),
		PTS:      frame.PTS,
		DTS:      frame.PTS,
		TimeBase: e.params.TimeBase(),
	})
	return nil
}

func (e *PCMEncoder) encode(samples []int32) []byte {
	if e.params.BitDepth == 24 {
		// 24-bit PCM: 3 bytes per sample
		output := make([]byte, len(samples)*3)
		for i, sample := range samples {
			bytes := audio.SampleTo24Bit(sample)
			output[i*3] = bytes[0]
			output[i*3+1] = bytes[1]
			output[i*3+2] = bytes[2]
		}
		return output
	}

	// 16-bit PCM: 2 bytes per sample
	output := make([]byte, len(samples)*2)
	for i, sample := range samples {
		sample16 := audio.SampleToInt16(sample)
		binary.LittleEndian.PutUint16(output[i*2:], uint16(sample16))
	}
	return output
}

// Flush marks end of stream; PCM has no look-ahead
func (e *PCMEncoder) Flush() error {
	e.flushed = true
	return nil
}

// SamplesPerFrame returns 20ms worth of samples
func (e *PCMEncoder) SamplesPerFrame() int {
	return e.frameSamples
}

// CodecParameters returns the output parameters
func (e *PCMEncoder) CodecParameters() audio.CodecParameters {
	return e.params
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
