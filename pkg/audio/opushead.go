// ABOUTME: OpusHead identification header (RFC 7845 section 5.1)
// ABOUTME: Carries the pre-skip that decoders use to drop encoder look-ahead
package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	opusHeadSignature = "OpusHead"
	opusHeadSize      = 19

	// OpusPreSkip is the libopus encoder look-ahead in 48kHz samples.
	OpusPreSkip = 312
)

// OpusHead is the Opus identification header. PreSkip is always counted in
// 48kHz samples regardless of the stream's decode rate.
type OpusHead struct {
	Channels   int
	PreSkip    int
	InputRate  int
	OutputGain int16
}

// ParseOpusHead parses an OpusHead header.
func ParseOpusHead(data []byte) (OpusHead, error) {
	if len(data) < opusHeadSize || !bytes.HasPrefix(data, []byte(opusHeadSignature)) {
		return OpusHead{}, fmt.Errorf("invalid OpusHead: %d bytes", len(data))
	}
	if data[8] != 1 {
		return OpusHead{}, fmt.Errorf("unsupported OpusHead version: %d", data[8])
	}
	return OpusHead{
		Channels:   int(data[9]),
		PreSkip:    int(binary.LittleEndian.Uint16(data[10:])),
		InputRate:  int(binary.LittleEndian.Uint32(data[12:])),
		OutputGain: int16(binary.LittleEndian.Uint16(data[16:])),
	}, nil
}

// Marshal encodes the header with channel mapping family 0.
func (h OpusHead) Marshal() []byte {
	b := make([]byte, opusHeadSize)
	copy(b[0:], opusHeadSignature)
	b[8] = 1 // Version
	b[9] = uint8(h.Channels)
	binary.LittleEndian.PutUint16(b[10:], uint16(h.PreSkip))
	binary.LittleEndian.PutUint32(b[12:], uint32(h.InputRate))
	binary.LittleEndian.PutUint16(b[16:], uint16(h.OutputGain))
	b[18] = 0 // Channel mapping
	return b
}

// PreSkipAt returns the pre-skip converted to samples at the given rate.
func (h OpusHead) PreSkipAt(sampleRate int) int {
	return h.PreSkip * sampleRate / 48000
}
