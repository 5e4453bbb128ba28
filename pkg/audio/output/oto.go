// ABOUTME: Oto-based audio output implementation
// ABOUTME: Plays transcoded PCM with software gain using the oto library
package output

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
)

// errClosed is returned when a closed output is reopened.
var errClosed = errors.New("oto output closed")

// Oto output implementation using oto library. Only one oto context may
// exist per process, so an Oto is opened once and cannot be reopened after
// Close.
type Oto struct {
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
	volume     int
	ready      bool
	closed     bool
}

// NewOto creates a new Oto output at full volume
func NewOto() *Oto {
	return &Oto{volume: 100}
}

// Open initializes the output device
func (o *Oto) Open(sampleRate, channels int) error {
	if o.closed {
		return errClosed
	}
	if o.otoCtx != nil {
		if o.sampleRate == sampleRate && o.channels == channels {
			return nil
		}
		return fmt.Errorf("oto output already open at %dHz %dch, cannot reopen at %dHz %dch",
			o.sampleRate, o.channels, sampleRate, channels)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels

	// Persistent player fed through a pipe for continuous streaming
	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()

	o.ready = true

	logrus.WithFields(logrus.Fields{
		"function":    "Open",
		"sample_rate": sampleRate,
		"channels":    channels,
	}).Info("Audio output initialized")

	return nil
}

// Write outputs audio samples (blocks until written)
func (o *Oto) Write(samples []int32) error {
	if !o.ready {
		return fmt.Errorf("output not initialized")
	}

	if _, err := o.pipeWriter.Write(encodeInt16(applyVolume(samples, o.volume))); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}

	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			return fmt.Errorf("failed to suspend oto context: %w", err)
		}
	}
	o.ready = false
	o.closed = true
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	o.volume = min(max(volume, 0), 100)
}

// Volume returns current volume
func (o *Oto) Volume() int {
	return o.volume
}

// applyVolume scales samples with clipping protection
func applyVolume(samples []int32, volume int) []int32 {
	if volume == 100 {
		return samples
	}
	multiplier := float64(volume) / 100.0

	result := make([]int32, len(samples))
	for i, sample := range samples {
		result[i] = audio.Clamp24(int64(float64(sample) * multiplier))
	}
	return result
}

// encodeInt16 converts samples to the 16-bit little-endian stream oto plays.
func encodeInt16(samples []int32) []byte {
	output := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(audio.SampleToInt16(s)))
	}
	return output
}
