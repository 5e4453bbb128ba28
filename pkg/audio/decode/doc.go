// ABOUTME: Audio decoder package for multiple codec support
// ABOUTME: Provides Decoder interface and implementations for PCM, Opus, FLAC
// Package decode provides audio decoders for various codecs.
//
// Supports: PCM (16-bit and 24-bit), Opus, FLAC
//
// All decoders implement the push/take/flush Decoder interface and output
// frames of int32 samples in 24-bit range with PTS counted in samples.
//
// Example:
//
//	decoder, err := decode.New(params)
//	err = decoder.Push(pkt)
//	for {
//	    frame, ok, err := decoder.Take()
//	    if err != nil || !ok {
//	        break
//	    }
//	    // use frame
//	}
package decode
