// ABOUTME: Channel layout conversion
// ABOUTME: Mono to stereo duplication and stereo to mono averaging on int32 samples
package resample

import (
	"fmt"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
)

// checkRemix reports whether samples can be converted between the layouts.
func checkRemix(from, to int) error {
	if from == to || (from == 1 && to == 2) || (from == 2 && to == 1) {
		return nil
	}
	return fmt.Errorf("%w channel conversion: %d -> %d", audio.ErrUnsupported, from, to)
}

// remix converts interleaved samples between channel layouts accepted by
// checkRemix.
func remix(samples []int32, from, to int) []int32 {
	switch {
	case from == to:
		return samples
	case from == 2 && to == 1:
		return stereoToMono(samples)
	default:
		return monoToStereo(samples)
	}
}

// stereoToMono averages the L and R channels.
func stereoToMono(samples []int32) []int32 {
	out := make([]int32, len(samples)/2)
	for i := range out {
		l, r := int64(samples[i*2]), int64(samples[i*2+1])
		out[i] = int32((l + r) / 2)
	}
	return out
}

// monoToStereo duplicates each sample into both channels.
func monoToStereo(samples []int32) []int32 {
	out := make([]int32, len(samples)*2)
	for i, s := range samples {
		out[i*2] = s
		out[i*2+1] = s
	}
	return out
}
