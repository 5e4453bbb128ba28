// ABOUTME: Audio resampling package
// ABOUTME: Converts channel layout, sample format and sample rate of decoded frames
// Package resample converts decoded frames between formats.
//
// A Converter remixes channels (mono <-> stereo), reduces bit depth, converts
// the sample rate with either linear interpolation or a band-limited sinc
// filter (github.com/tphakala/go-audio-resampling), and cuts the result into
// frames of a fixed size so encoders always receive the frame length they
// require.
//
// Example:
//
//	r, err := resample.New(resample.Config{
//	    Source:       input,
//	    Target:       output,
//	    FrameSamples: encoder.SamplesPerFrame(),
//	})
//	err = r.Push(frame)
//	out, ok, err := r.Take()
package resample
