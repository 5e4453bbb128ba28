// ABOUTME: Audio type definitions
// ABOUTME: Defines codec parameters, encoded packets and decoded frames
package audio

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Codec names understood by the decode and encode packages
const (
	CodecPCM  = "pcm"
	CodecOpus = "opus"
	CodecFLAC = "flac"
)

// CodecParameters describes an audio stream: codec identity, sample rate,
// channel layout and sample format.
type CodecParameters struct {
	Codec       string
	SampleRate  int
	Channels    int    // 1 = mono, 2 = interleaved L/R
	BitDepth    int    // 16 or 24
	Bitrate     int    // bits per second, 0 = codec default
	CodecHeader []byte // OpusHead, fLaC+STREAMINFO, etc.
}

// TimeBase returns 1/SampleRate, the native time base of decoded frames.
func (p CodecParameters) TimeBase() Rational {
	return Rational{Num: 1, Den: p.SampleRate}
}

// Packet is a unit of encoded audio.
type Packet struct {
	Data        []byte
	PTS         int64
	DTS         int64
	StreamIndex int
	TimeBase    Rational
}

// WithPTS returns a copy of the packet with the presentation timestamp set.
func (p Packet) WithPTS(pts int64) Packet {
	p.PTS = pts
	return p
}

// WithDTS returns a copy of the packet with the decode timestamp set.
func (p Packet) WithDTS(dts int64) Packet {
	p.DTS = dts
	return p
}

// WithStreamIndex returns a copy of the packet with the stream index set.
func (p Packet) WithStreamIndex(index int) Packet {
	p.StreamIndex = index
	return p
}

// WithTimeBase returns a copy of the packet with the time base set.
func (p Packet) WithTimeBase(tb Rational) Packet {
	p.TimeBase = tb
	return p
}

// Frame represents decoded PCM audio. PTS is expressed in samples (time base
// 1/SampleRate).
type Frame struct {
	Samples    []int32 // interleaved, 24-bit range
	PTS        int64
	SampleRate int
	Channels   int
}

// NumSamples returns the number of samples per channel.
func (f Frame) NumSamples() int {
	if f.Channels <= 0 {
		return 0
	}
	return len(f.Samples) / f.Channels
}

// WithPTS returns a copy of the frame with the presentation timestamp set.
func (f Frame) WithPTS(pts int64) Frame {
	f.PTS = pts
	return f
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// SampleFromBits scales a sample of the given bit depth into the 24-bit range.
func SampleFromBits(sample int32, bits int) int32 {
	switch {
	case bits == 24:
		return sample
	case bits < 24:
		return sample << (24 - bits)
	default:
		return sample >> (bits - 24)
	}
}

// SampleToBits scales a 24-bit range sample to the given bit depth.
func SampleToBits(sample int32, bits int) int32 {
	switch {
	case bits == 24:
		return sample
	case bits < 24:
		return sample >> (24 - bits)
	default:
		return sample << (bits - 24)
	}
}

// Clamp24 clamps a widened sample to the 24-bit range.
func Clamp24(v int64) int32 {
	if v > Max24Bit {
		return Max24Bit
	}
	if v < Min24Bit {
		return Min24Bit
	}
	return int32(v)
}
