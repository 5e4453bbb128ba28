// ABOUTME: FLAC file packet source using mewkiz/flac
// ABOUTME: Converts each FLAC frame to little-endian PCM packets
package source

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
)

// FLACSource reads from a FLAC file
type FLACSource struct {
	file    *os.File
	stream  *flac.Stream
	params  audio.CodecParameters
	srcBits int

	pending []int32 // interleaved 24-bit range samples not yet packetized
	samples int     // samples per channel per packet
	pts     int64
	eof     bool
}

// OpenFLAC creates a new FLAC audio source
func OpenFLAC(path string, opts Options) (*FLACSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	srcBits := int(info.BitsPerSample)
	bitDepth := 24
	if srcBits <= 16 {
		bitDepth = 16
	}

	params := audio.CodecParameters{
		Codec:      audio.CodecPCM,
		SampleRate: int(info.SampleRate),
		Channels:   int(info.NChannels),
		BitDepth:   bitDepth,
	}

	return &FLACSource{
		file:    f,
		stream:  stream,
		params:  params,
		srcBits: srcBits,
		samples: opts.packetSamples(params.SampleRate),
	}, nil
}

// ReadPacket returns the next packet of PCM
func (s *FLACSource) ReadPacket() (audio.Packet, error) {
	want := s.samples * s.params.Channels
	for !s.eof && len(s.pending) < want {
		frame, err := s.stream.ParseNext()
		if err == io.EOF {
			s.eof = true
			break
		}
		if err != nil {
			return audio.Packet{}, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}

		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < s.params.Channels; ch++ {
				sample := frame.Subframes[ch].Samples[i]
				s.pending = append(s.pending, audio.SampleFromBits(sample, s.srcBits))
			}
		}
	}

	if len(s.pending) == 0 {
		return audio.Packet{}, io.EOF
	}

	n := min(want, len(s.pending))
	pkt := audio.Packet{
		Data:     s.pack(s.pending[:n]),
		PTS:      s.pts,
		DTS:      s.pts,
		TimeBase: s.params.TimeBase(),
	}
	s.pts += int64(n / s.params.Channels)
	s.pending = append(s.pending[:0], s.pending[n:]...)
	return pkt, nil
}

func (s *FLACSource) pack(samples []int32) []byte {
	if s.params.BitDepth == 24 {
		out := make([]byte, len(samples)*3)
		for i, sample := range samples {
			b := audio.SampleTo24Bit(sample)
			copy(out[i*3:], b[:])
		}
		return out
	}

	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(audio.SampleToInt16(sample)))
	}
	return out
}

// CodecParameters describes the decoded PCM
func (s *FLACSource) CodecParameters() audio.CodecParameters {
	return s.params
}

// Close closes the FLAC file
func (s *FLACSource) Close() error {
	return s.file.Close()
}
