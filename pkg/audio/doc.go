// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines CodecParameters, Packet, Frame types and sample conversion functions
// Package audio provides the value types that flow through the transcoding
// pipeline.
//
//   - CodecParameters: describes a stream (codec, sample rate, channels, bit depth)
//   - Packet: encoded bytes with PTS/DTS in a Rational time base
//   - Frame: decoded interleaved int32 samples with PTS counted in samples
//
// Decoded samples always use the 24-bit range regardless of the source bit
// depth, so every engine can exchange frames without knowing its neighbours.
//
// Example:
//
//	params := audio.CodecParameters{
//	    Codec:      audio.CodecOpus,
//	    SampleRate: 48000,
//	    Channels:   2,
//	    BitDepth:   16,
//	}
//
//	// 960 samples at 48kHz in microseconds
//	us := audio.Rescale(960, params.TimeBase(), audio.Microseconds)
package audio
