// ABOUTME: Opus audio decoder
// ABOUTME: Decodes Opus packets to int32 frames, applying OpusHead pre-skip
package decode

import (
	"fmt"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusFrameSamples is 120ms at 48kHz
const maxOpusFrameSamples = 5760

// OpusDecoder decodes Opus audio
type OpusDecoder struct {
	frameQueue
	decoder *opus.Decoder
	params  audio.CodecParameters
	preSkip int64
	pcm16   []int16
}

// NewOpus creates a new Opus decoder. If params.CodecHeader holds an OpusHead,
// its pre-skip shifts the timeline so the encoder look-ahead lands at negative
// timestamps.
func NewOpus(params audio.CodecParameters) (*OpusDecoder, error) {
	if params.Codec != audio.CodecOpus {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", params.Codec)
	}

	dec, err := opus.NewDecoder(params.SampleRate, params.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	var preSkip int64
	if len(params.CodecHeader) > 0 {
		head, err := audio.ParseOpusHead(params.CodecHeader)
		if err != nil {
			return nil, fmt.Errorf("opus codec header: %w", err)
		}
		preSkip = int64(head.PreSkipAt(params.SampleRate))
	}

	return &OpusDecoder{
		decoder: dec,
		params:  params,
		preSkip: preSkip,
		pcm16:   make([]int16, maxOpusFrameSamples*params.Channels),
	}, nil
}

// Push decodes one Opus packet
func (d *OpusDecoder) Push(pkt audio.Packet) error {
	if err := d.checkOpen(); err != nil {
		return err
	}

	n, err := d.decoder.Decode(pkt.Data, d.pcm16)
	if err != nil {
		return fmt.Errorf("opus decode failed: %w", err)
	}

	// Opus is always 16-bit
	actualSamples := n * d.params.Channels
	pcm32 := make([]int32, actualSamples)
	for i := 0; i < actualSamples; i++ {
		pcm32[i] = audio.SampleFromInt16(d.pcm16[i])
	}

	d.push(audio.Frame{
		Samples:    pcm32,
		PTS:        framePTS(pkt, d.params.SampleRate) - d.preSkip,
		SampleRate: d.params.SampleRate,
		Channels:   d.params.Channels,
	})
	return nil
}

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	return nil
}
