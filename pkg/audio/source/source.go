// ABOUTME: Packet sources feeding the transcoder from files or generators
// ABOUTME: Opens raw PCM, MP3, FLAC or a test tone and yields PCM packets
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
)

// DefaultPacketMs is the packet duration used when none is configured.
const DefaultPacketMs = 20

// Source yields encoded packets with PTS in 1/SampleRate.
type Source interface {
	// ReadPacket returns the next packet, or io.EOF at end of stream
	ReadPacket() (audio.Packet, error)

	// CodecParameters describes the packets this source produces
	CodecParameters() audio.CodecParameters

	// Close releases the underlying file
	Close() error
}

// Options control how a source is opened.
type Options struct {
	// PacketMs is the duration of each packet, default DefaultPacketMs
	PacketMs int

	// Raw describes headerless PCM input (.pcm, .raw and stdin)
	Raw audio.CodecParameters

	// ToneSeconds is the length of the generated test tone
	ToneSeconds float64
}

func (o Options) packetSamples(sampleRate int) int {
	ms := o.PacketMs
	if ms <= 0 {
		ms = DefaultPacketMs
	}
	return max(sampleRate*ms/1000, 1)
}

// Open creates a source for path. The special names "tone" and "-" select
// the test tone generator and raw PCM on stdin.
func Open(path string, opts Options) (Source, error) {
	log := logrus.WithFields(logrus.Fields{
		"function": "Open",
		"path":     path,
	})

	switch path {
	case "tone":
		return NewTone(opts), nil
	case "-":
		return NewRaw(os.Stdin, opts)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", path)
	}

	var (
		src Source
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		src, err = OpenMP3(path, opts)
	case ".flac":
		src, err = OpenFLAC(path, opts)
	case ".pcm", ".raw":
		src, err = OpenRaw(path, opts)
	default:
		return nil, fmt.Errorf("%w audio format: %s (supported: .mp3, .flac, .pcm, .raw)", audio.ErrUnsupported, ext)
	}
	if err != nil {
		return nil, err
	}

	params := src.CodecParameters()
	log.WithFields(logrus.Fields{
		"sample_rate": params.SampleRate,
		"channels":    params.Channels,
		"bit_depth":   params.BitDepth,
	}).Info("Opened audio source")

	return src, nil
}
