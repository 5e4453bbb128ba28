// ABOUTME: Tests for CLI wiring
// ABOUTME: Runs the probe command and checks profile flag overrides
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	formatFlag = formatFlags{}
	profilePath = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--quiet"))
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestProbeOpus(t *testing.T) {
	out := execute(t, "probe", "--codec", "opus", "--bitrate", "96000")
	assert.Contains(t, out, "codec:        opus")
	assert.Contains(t, out, "pre-skip:     312 samples")
	assert.Contains(t, out, "bitrate:      96000 bps")
}

func TestProbeProfileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flac.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  codec: flac\n  sample_rate: 44100\n"), 0o644))

	out := execute(t, "probe", "-c", path)
	assert.Contains(t, out, "codec:        flac")
	assert.Contains(t, out, "sample rate:  44100 Hz")
	assert.Contains(t, out, "codec header:")
}

func TestTranscodeToFramedDumpAndProbe(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "tone.sstc")
	execute(t, "transcode", "tone", "--codec", "opus", "--framed", "-o", dump)

	out := execute(t, "probe", dump)
	assert.Contains(t, out, "codec:        opus")
	assert.Contains(t, out, "packets:")
}

func TestLoadProfileOverrides(t *testing.T) {
	formatFlag = formatFlags{codec: "flac", rate: 96000, bitDepth: 24, quality: "linear", packet: 10}
	profilePath = ""
	defer func() { formatFlag = formatFlags{} }()

	p, err := loadProfile()
	require.NoError(t, err)
	assert.Equal(t, "flac", p.Output.Codec)
	assert.Equal(t, 96000, p.Output.SampleRate)
	assert.Equal(t, 24, p.Output.BitDepth)
	assert.Equal(t, 10, p.PacketMs)
	assert.Equal(t, "linear", p.Resample.Quality)

	formatFlag = formatFlags{quality: "ultra"}
	_, err = loadProfile()
	assert.Error(t, err)
}
