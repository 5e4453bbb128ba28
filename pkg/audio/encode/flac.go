// ABOUTME: FLAC audio encoder
// ABOUTME: Encodes int32 frames to one FLAC frame per packet using mewkiz/flac
package encode

import (
	"bytes"
	"fmt"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// flacBlockSize is the fixed FLAC block size; 4096 is the libFLAC default.
const flacBlockSize = 4096

// FLACEncoder encodes FLAC audio. The stream header ("fLaC" + STREAMINFO) is
// exposed through CodecParameters().CodecHeader and every packet holds
// exactly one frame, so concatenating header and packets yields a FLAC file.
type FLACEncoder struct {
	packetQueue
	encoder *flac.Encoder
	buf     *bytes.Buffer
	params  audio.CodecParameters
	frameNo uint64
}

// NewFLAC creates a new FLAC encoder
func NewFLAC(params audio.CodecParameters) (*FLACEncoder, error) {
	if params.Codec != audio.CodecFLAC {
		return nil, fmt.Errorf("invalid codec for FLAC encoder: %s", params.Codec)
	}

	if params.BitDepth != 16 && params.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", params.BitDepth)
	}

	if params.Channels < 1 || params.Channels > 8 {
		return nil, fmt.Errorf("unsupported FLAC channel count: %d", params.Channels)
	}

	info := &meta.StreamInfo{
		BlockSizeMin:  flacBlockSize,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    uint32(params.SampleRate),
		NChannels:     uint8(params.Channels),
		BitsPerSample: uint8(params.BitDepth),
	}

	buf := &bytes.Buffer{}
	encoder, err := flac.NewEncoder(buf, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create flac encoder: %w", err)
	}

	params.CodecHeader = bytes.Clone(buf.Bytes())
	buf.Reset()

	return &FLACEncoder{
		encoder: encoder,
		buf:     buf,
		params:  params,
	}, nil
}

// Push encodes one frame as a verbatim FLAC frame
func (e *FLACEncoder) Push(fr audio.Frame) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if err := checkFrame(fr, e.params.Channels, flacBlockSize); err != nil {
		return err
	}

	channels := e.params.Channels
	blockSize := fr.NumSamples()
	subframes := make([]*frame.Subframe, channels)
	for ch := range subframes {
		samples := make([]int32, blockSize)
		for i := range samples {
			samples[i] = audio.SampleToBits(fr.Samples[i*channels+ch], e.params.BitDepth)
		}
		subframes[ch] = &frame.Subframe{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   samples,
			NSamples:  blockSize,
		}
	}

	f := &frame.Frame{
		Header: frame.Header{
			HasFixedBlockSize: true,
			BlockSize:         uint16(blockSize),
			SampleRate:        uint32(e.params.SampleRate),
			Channels:          flacChannels(channels),
			BitsPerSample:     uint8(e.params.BitDepth),
			Num:               e.frameNo,
		},
		Subframes: subframes,
	}

	if err := e.encoder.WriteFrame(f); err != nil {
		return fmt.Errorf("flac encode error: %w", err)
	}
	e.frameNo++

	e.push(audio.Packet{
		Data:     bytes.Clone(e.buf.Bytes()),
		PTS:      fr.PTS,
		DTS:      fr.PTS,
		TimeBase: e.params.TimeBase(),
	})
	e.buf.Reset()
	return nil
}

// flacChannels maps a channel count to the independent (non-decorrelated)
// channel assignment, which the format numbers 0-7 for 1-8 channels.
func flacChannels(n int) frame.Channels {
	return frame.Channels(n - 1)
}

// Flush marks end of stream; every frame is already written
func (e *FLACEncoder) Flush() error {
	e.flushed = true
	return nil
}

// SamplesPerFrame returns the FLAC block size
func (e *FLACEncoder) SamplesPerFrame() int {
	return flacBlockSize
}

// CodecParameters returns the output parameters including the stream header
func (e *FLACEncoder) CodecParameters() audio.CodecParameters {
	return e.params
}

// Close releases resources
func (e *FLACEncoder) Close() error {
	if err := e.encoder.Close(); err != nil {
		return fmt.Errorf("failed to close flac encoder: %w", err)
	}
	return nil
}
