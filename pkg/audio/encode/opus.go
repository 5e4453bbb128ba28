// ABOUTME: Opus audio encoder
// ABOUTME: Encodes int32 frames to Opus packets and covers the encoder look-ahead on flush
package encode

import (
	"fmt"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusPacketSize is the largest packet libopus produces
const maxOpusPacketSize = 4000

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	packetQueue
	encoder   *opus.Encoder
	params    audio.CodecParameters
	frameSize int
	lookahead int64

	pcm16 []int16
	data  []byte

	// Sample counts drive the trailing frames emitted on Flush
	inputSamples   int64
	encodedSamples int64
	nextPTS        int64
}

// NewOpus creates a new Opus encoder
func NewOpus(params audio.CodecParameters) (*OpusEncoder, error) {
	if params.Codec != audio.CodecOpus {
		return nil, fmt.Errorf("invalid codec for Opus encoder: %s", params.Codec)
	}

	encoder, err := opus.NewEncoder(params.SampleRate, params.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	if params.Bitrate > 0 {
		if err := encoder.SetBitrate(params.Bitrate); err != nil {
			return nil, fmt.Errorf("failed to set opus bitrate %d: %w", params.Bitrate, err)
		}
	}

	// Opus frame size depends on sample rate
	frameSize := defaultFrameSamples(params.SampleRate)

	head := audio.OpusHead{
		Channels:  params.Channels,
		PreSkip:   audio.OpusPreSkip,
		InputRate: params.SampleRate,
	}

	// Opus is always 16-bit
	params.BitDepth = 16
	params.CodecHeader = head.Marshal()

	return &OpusEncoder{
		encoder:   encoder,
		params:    params,
		frameSize: frameSize,
		lookahead: int64(head.PreSkipAt(params.SampleRate)),
		pcm16:     make([]int16, frameSize*params.Channels),
		data:      make([]byte, maxOpusPacketSize),
	}, nil
}

// Push encodes one frame, padding a short final frame with silence
func (e *OpusEncoder) Push(frame audio.Frame) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if err := checkFrame(frame, e.params.Channels, e.frameSize); err != nil {
		return err
	}

	clear(e.pcm16)
	for i, sample := range frame.Samples {
		e.pcm16[i] = audio.SampleToInt16(sample)
	}

	if err := e.encodeFrame(frame.PTS); err != nil {
		return err
	}
	e.inputSamples += int64(frame.NumSamples())
	return nil
}

func (e *OpusEncoder) encodeFrame(pts int64) error {
	n, err := e.encoder.Encode(e.pcm16, e.data)
	if err != nil {
		return fmt.Errorf("opus encode error: %w", err)
	}

	data := make([]byte, n)
	copy(data, e.data[:n])

	e.push(audio.Packet{
		Data:     data,
		PTS:      pts,
		DTS:      pts,
		TimeBase: e.params.TimeBase(),
	})
	e.encodedSamples += int64(e.frameSize)
	e.nextPTS = pts + int64(e.frameSize)
	return nil
}

// Flush encodes silent frames until the decoded stream covers every input
// sample plus the pre-skip.
func (e *OpusEncoder) Flush() error {
	if e.flushed {
		return nil
	}
	e.flushed = true

	if e.inputSamples == 0 {
		return nil
	}

	clear(e.pcm16)
	for e.encodedSamples < e.inputSamples+e.lookahead {
		if err := e.encodeFrame(e.nextPTS); err != nil {
			return err
		}
	}
	return nil
}

// SamplesPerFrame returns the 20ms frame size
func (e *OpusEncoder) SamplesPerFrame() int {
	return e.frameSize
}

// CodecParameters returns the output parameters including the OpusHead
func (e *OpusEncoder) CodecParameters() audio.CodecParameters {
	return e.params
}

// Close releases resources
func (e *OpusEncoder) Close() error {
	return nil
}
