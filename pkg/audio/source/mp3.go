// ABOUTME: MP3 file packet source using go-mp3
// ABOUTME: Decodes to 16-bit stereo PCM packets
package source

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
)

// MP3Source reads from an MP3 file
type MP3Source struct {
	*RawSource
	file *os.File
}

// OpenMP3 creates a new MP3 audio source
func OpenMP3(path string, opts Options) (*MP3Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	// go-mp3 always produces 16-bit little-endian stereo
	params := audio.CodecParameters{
		Codec:      audio.CodecPCM,
		SampleRate: decoder.SampleRate(),
		Channels:   2,
		BitDepth:   16,
	}

	return &MP3Source{
		RawSource: newRaw(decoder, params, opts),
		file:      f,
	}, nil
}

// Close closes the MP3 file
func (s *MP3Source) Close() error {
	return s.file.Close()
}
