// ABOUTME: Test tone generator source
// ABOUTME: Generates a 440Hz sine wave as 16-bit stereo PCM packets
package source

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
)

const (
	toneSampleRate = 48000
	toneChannels   = 2
	toneFrequency  = 440.0 // A4 note
	toneSeconds    = 5.0
)

// ToneSource generates a 440Hz test tone
type ToneSource struct {
	params      audio.CodecParameters
	sampleIndex int64
	total       int64
	packet      int
}

// NewTone creates a test tone generator lasting opts.ToneSeconds.
func NewTone(opts Options) *ToneSource {
	seconds := opts.ToneSeconds
	if seconds <= 0 {
		seconds = toneSeconds
	}
	return &ToneSource{
		params: audio.CodecParameters{
			Codec:      audio.CodecPCM,
			SampleRate: toneSampleRate,
			Channels:   toneChannels,
			BitDepth:   16,
		},
		total:  int64(seconds * toneSampleRate),
		packet: opts.packetSamples(toneSampleRate),
	}
}

// ReadPacket generates the next packet of the tone
func (s *ToneSource) ReadPacket() (audio.Packet, error) {
	remaining := s.total - s.sampleIndex
	if remaining <= 0 {
		return audio.Packet{}, io.EOF
	}
	n := int(min(int64(s.packet), remaining))

	data := make([]byte, n*toneChannels*2)
	for i := 0; i < n; i++ {
		t := float64(s.sampleIndex+int64(i)) / toneSampleRate
		sample := math.Sin(2 * math.Pi * toneFrequency * t)

		// 50% volume
		pcmValue := int16(sample * 32767.0 * 0.5)

		// Stereo (duplicate to both channels)
		binary.LittleEndian.PutUint16(data[i*4:], uint16(pcmValue))
		binary.LittleEndian.PutUint16(data[i*4+2:], uint16(pcmValue))
	}

	pkt := audio.Packet{
		Data:     data,
		PTS:      s.sampleIndex,
		DTS:      s.sampleIndex,
		TimeBase: s.params.TimeBase(),
	}
	s.sampleIndex += int64(n)
	return pkt, nil
}

// CodecParameters describes the generated PCM
func (s *ToneSource) CodecParameters() audio.CodecParameters {
	return s.params
}

func (s *ToneSource) Close() error { return nil }
