// ABOUTME: PCM audio decoder
// ABOUTME: Decodes 16-bit and 24-bit little-endian PCM packets to int32 frames
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
)

// PCMDecoder decodes PCM audio
type PCMDecoder struct {
	frameQueue
	bitDepth   int
	channels   int
	sampleRate int
}

// NewPCM creates a new PCM decoder
func NewPCM(params audio.CodecParameters) (*PCMDecoder, error) {
	if params.Codec != audio.CodecPCM {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", params.Codec)
	}

	if params.BitDepth != 16 && params.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", params.BitDepth)
	}

	if params.Channels < 1 || params.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid PCM layout: %d Hz, %d channels", params.SampleRate, params.Channels)
	}

	return &PCMDecoder{
		bitDepth:   params.BitDepth,
		channels:   params.Channels,
		sampleRate: params.SampleRate,
	}, nil
}

// Push converts one PCM packet into a frame
func (d *PCMDecoder) Push(pkt audio.Packet) error {
	if err := d.checkOpen(); err != nil {
		return err
	}

	bytesPerSample := d.bitDepth / 8
	if len(pkt.Data)%(bytesPerSample*d.channels) != 0 {
		return fmt.Errorf("pcm packet size %d is not a multiple of %d", len(pkt.Data), bytesPerSample*d.channels)
	}

	samples := d.decode(pkt.Data)
	if len(samples) == 0 {
		return nil
	}

	d.push(audio.Frame{
		Samples:    samples,
		PTS:        framePTS(pkt, d.sampleRate),
		SampleRate: d.sampleRate,
		Channels:   d.channels,
	})
	return nil
}

func (d *PCMDecoder) decode(data []byte) []int32 {
	if d.bitDepth == 24 {
		// 24-bit PCM: 3 bytes per sample
		numSamples := len(data) / 3
		samples := make([]int32, numSamples)
		for i := 0; i < numSamples; i++ {
			b := [3]byte{data[i*3], data[i*3+1], data[i*3+2]}
			samples[i] = audio.SampleFrom24Bit(b)
		}
		return samples
	}

	// 16-bit PCM: 2 bytes per sample
	numSamples := len(data) / 2
	samples := make([]int32, numSamples)
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = audio.SampleFromInt16(sample16)
	}
	return samples
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
