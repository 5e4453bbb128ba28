// ABOUTME: Transcode profile configuration
// ABOUTME: Loads input/output formats and resampling settings from YAML
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
	"github.com/Sendspin/sendspin-transcode/pkg/audio/resample"
)

// Format describes one side of a transcode in a profile.
type Format struct {
	Codec      string `yaml:"codec"`
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
	BitDepth   int    `yaml:"bit_depth"`
	Bitrate    int    `yaml:"bitrate"`
}

// Resample holds resampler settings.
type Resample struct {
	Quality string `yaml:"quality"`
}

// Profile is a named transcode configuration.
//
// Example:
//
//	input:
//	  sample_rate: 44100
//	  channels: 2
//	  bit_depth: 16
//	output:
//	  codec: opus
//	  sample_rate: 48000
//	  channels: 2
//	  bitrate: 128000
//	resample:
//	  quality: high
//	packet_ms: 20
type Profile struct {
	Input    Format   `yaml:"input"`
	Output   Format   `yaml:"output"`
	Resample Resample `yaml:"resample"`
	PacketMs int      `yaml:"packet_ms"`
}

// Default returns the profile used when no file is given: 16-bit stereo PCM
// at 48kHz on both sides.
func Default() Profile {
	pcm := Format{
		Codec:      audio.CodecPCM,
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}
	return Profile{
		Input:    pcm,
		Output:   pcm,
		Resample: Resample{Quality: string(resample.DefaultQuality)},
		PacketMs: 20,
	}
}

// Load reads a profile from path, filling unset fields from Default.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML profile, filling unset fields from Default.
func Parse(data []byte) (Profile, error) {
	p := Default()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate checks the profile for values no engine accepts.
func (p Profile) Validate() error {
	for name, f := range map[string]Format{"input": p.Input, "output": p.Output} {
		if f.SampleRate <= 0 {
			return fmt.Errorf("%s: invalid sample rate: %d", name, f.SampleRate)
		}
		if f.Channels < 1 {
			return fmt.Errorf("%s: invalid channel count: %d", name, f.Channels)
		}
		if f.Bitrate < 0 {
			return fmt.Errorf("%s: invalid bitrate: %d", name, f.Bitrate)
		}
	}
	if p.PacketMs <= 0 {
		return fmt.Errorf("invalid packet_ms: %d", p.PacketMs)
	}
	if _, err := resample.ParseQuality(p.Resample.Quality); err != nil {
		return err
	}
	return nil
}

// Params converts the format to codec parameters.
func (f Format) Params() audio.CodecParameters {
	return audio.CodecParameters{
		Codec:      f.Codec,
		SampleRate: f.SampleRate,
		Channels:   f.Channels,
		BitDepth:   f.BitDepth,
		Bitrate:    f.Bitrate,
	}
}

// Quality returns the parsed resampling quality.
func (p Profile) Quality() resample.Quality {
	q, err := resample.ParseQuality(p.Resample.Quality)
	if err != nil {
		return resample.DefaultQuality
	}
	return q
}
