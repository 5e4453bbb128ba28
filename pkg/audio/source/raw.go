// ABOUTME: Headerless PCM packet source
// ABOUTME: Cuts a little-endian PCM byte stream into fixed-duration packets
package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
)

// RawSource reads interleaved little-endian PCM from a reader.
type RawSource struct {
	r          io.Reader
	closer     io.Closer
	params     audio.CodecParameters
	packetSize int
	pts        int64
}

// NewRaw wraps a reader of PCM described by opts.Raw.
func NewRaw(r io.Reader, opts Options) (*RawSource, error) {
	params := opts.Raw
	params.Codec = audio.CodecPCM
	if params.BitDepth != 16 && params.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", params.BitDepth)
	}
	if params.SampleRate <= 0 || params.Channels < 1 {
		return nil, fmt.Errorf("invalid PCM layout: %d Hz, %d channels", params.SampleRate, params.Channels)
	}

	return newRaw(r, params, opts), nil
}

func newRaw(r io.Reader, params audio.CodecParameters, opts Options) *RawSource {
	frameBytes := params.Channels * params.BitDepth / 8
	return &RawSource{
		r:          r,
		params:     params,
		packetSize: opts.packetSamples(params.SampleRate) * frameBytes,
	}
}

// OpenRaw opens a headerless PCM file.
func OpenRaw(path string, opts Options) (*RawSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PCM file: %w", err)
	}
	s, err := NewRaw(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// ReadPacket reads one packet; a short final packet is trimmed to whole
// sample frames.
func (s *RawSource) ReadPacket() (audio.Packet, error) {
	buf := make([]byte, s.packetSize)
	n, err := io.ReadFull(s.r, buf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	if err != nil {
		return audio.Packet{}, err
	}

	frameBytes := s.params.Channels * s.params.BitDepth / 8
	n -= n % frameBytes
	if n == 0 {
		return audio.Packet{}, io.EOF
	}

	pkt := audio.Packet{
		Data:     buf[:n],
		PTS:      s.pts,
		DTS:      s.pts,
		TimeBase: s.params.TimeBase(),
	}
	s.pts += int64(n / frameBytes)
	return pkt, nil
}

// CodecParameters describes the PCM stream
func (s *RawSource) CodecParameters() audio.CodecParameters {
	return s.params
}

// Close closes the file if the source opened one
func (s *RawSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
