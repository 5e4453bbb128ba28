// ABOUTME: Audio encoder package for encoding PCM to various formats
// ABOUTME: Provides Encoder interface and implementations for PCM, Opus, FLAC
// Package encode provides audio encoders for various codecs.
//
// Supports: PCM (16-bit and 24-bit), Opus, FLAC
//
// All encoders accept frames of int32 samples in 24-bit range holding exactly
// SamplesPerFrame samples per channel (the last frame of a stream may be
// shorter) and emit packets stamped in 1/SampleRate.
//
// Example:
//
//	encoder, err := encode.New(params)
//	err = encoder.Push(frame)
//	pkt, ok, err := encoder.Take()
package encode
