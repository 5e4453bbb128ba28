// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes one FLAC frame per packet to int32 frames
package decode

import (
	"bytes"
	"fmt"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
	"github.com/mewkiz/flac/frame"
)

// FLACDecoder decodes FLAC audio. Each packet must hold exactly one FLAC
// frame (header, subframes and CRC-16), as produced by a FLAC demuxer or by
// encode.FLACEncoder.
type FLACDecoder struct {
	frameQueue
	params audio.CodecParameters
}

// NewFLAC creates a new FLAC decoder
func NewFLAC(params audio.CodecParameters) (*FLACDecoder, error) {
	if params.Codec != audio.CodecFLAC {
		return nil, fmt.Errorf("invalid codec for FLAC decoder: %s", params.Codec)
	}

	if params.Channels < 1 || params.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid FLAC layout: %d Hz, %d channels", params.SampleRate, params.Channels)
	}

	return &FLACDecoder{
		params: params,
	}, nil
}

// Push parses one FLAC frame
func (d *FLACDecoder) Push(pkt audio.Packet) error {
	if err := d.checkOpen(); err != nil {
		return err
	}

	fr, err := frame.Parse(bytes.NewReader(pkt.Data))
	if err != nil {
		return fmt.Errorf("flac frame parse failed: %w", err)
	}

	channels := len(fr.Subframes)
	if channels != d.params.Channels {
		return fmt.Errorf("flac frame has %d channels, stream has %d", channels, d.params.Channels)
	}

	bitDepth := int(fr.BitsPerSample)
	if bitDepth == 0 {
		bitDepth = d.params.BitDepth
	}

	// Interleave subframes, scaling to 24-bit range
	blockSize := int(fr.BlockSize)
	samples := make([]int32, blockSize*channels)
	for i := 0; i < blockSize; i++ {
		for ch := 0; ch < channels; ch++ {
			samples[i*channels+ch] = audio.SampleFromBits(fr.Subframes[ch].Samples[i], bitDepth)
		}
	}

	d.push(audio.Frame{
		Samples:    samples,
		PTS:        framePTS(pkt, d.params.SampleRate),
		SampleRate: d.params.SampleRate,
		Channels:   channels,
	})
	return nil
}

// Close releases decoder resources
func (d *FLACDecoder) Close() error {
	return nil
}
