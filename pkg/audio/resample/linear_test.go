// ABOUTME: Unit tests for the linear resampler
// ABOUTME: Verifies chunk continuity and end-of-stream sample counts
package resample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(frames, channels int) []float64 {
	out := make([]float64, frames*channels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			out[i*channels+ch] = float64(i) / float64(frames)
		}
	}
	return out
}

func processAll(t *testing.T, r *Linear, input []float64, chunk int) []float64 {
	t.Helper()
	var out []float64
	for start := 0; start < len(input); start += chunk {
		end := min(start+chunk, len(input))
		got, err := r.Process(input[start:end])
		require.NoError(t, err)
		out = append(out, got...)
	}
	tail, err := r.Flush()
	require.NoError(t, err)
	return append(out, tail...)
}

func TestLinearOutputLength(t *testing.T) {
	tests := []struct {
		name    string
		in, out int
		frames  int
		want    int
	}{
		{"upsample 44.1k to 48k", 44100, 48000, 4410, 4800},
		{"downsample 48k to 16k", 48000, 16000, 960, 320},
		{"upsample 16k to 48k", 16000, 48000, 320, 960},
		{"identity", 48000, 48000, 480, 480},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewLinear(tt.in, tt.out, 2)
			out := processAll(t, r, ramp(tt.frames, 2), 2*tt.frames)
			assert.Equal(t, tt.want, len(out)/2)
		})
	}
}

func TestLinearChunkingIsTransparent(t *testing.T) {
	input := ramp(1000, 2)

	whole := processAll(t, NewLinear(44100, 48000, 2), input, len(input))
	chunked := processAll(t, NewLinear(44100, 48000, 2), input, 2*37)

	require.Equal(t, len(whole), len(chunked))
	for i := range whole {
		assert.InDelta(t, whole[i], chunked[i], 1e-9, "sample %d", i)
	}
}

func TestLinearInterpolatesBetweenSamples(t *testing.T) {
	r := NewLinear(1, 2, 1)
	out, err := r.Process([]float64{0, 1, 0})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(out), 4)
	assert.InDelta(t, 0.0, out[0], 1e-9)
	assert.InDelta(t, 0.5, out[1], 1e-9)
	assert.InDelta(t, 1.0, out[2], 1e-9)
	assert.InDelta(t, 0.5, out[3], 1e-9)
}

func TestLinearEmptyInput(t *testing.T) {
	r := NewLinear(44100, 48000, 2)

	out, err := r.Process(nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = r.Flush()
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLinearPreservesDC(t *testing.T) {
	input := make([]float64, 2*500)
	for i := range input {
		input[i] = 0.25
	}
	out := processAll(t, NewLinear(48000, 44100, 2), input, 2*100)
	for i, s := range out {
		if math.Abs(s-0.25) > 1e-9 {
			t.Fatalf("sample %d = %v, want 0.25", i, s)
		}
	}
}
