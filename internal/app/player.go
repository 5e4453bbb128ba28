// ABOUTME: Local playback of transcoded PCM
// ABOUTME: Decodes output packets and writes them to an audio output device
package app

import (
	"fmt"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
	"github.com/Sendspin/sendspin-transcode/pkg/audio/decode"
	"github.com/Sendspin/sendspin-transcode/pkg/audio/output"
)

// Player plays the transcoder's output. Any codec with a decoder can be
// played; the frames go straight to the output device.
type Player struct {
	output  output.Output
	decoder decode.Decoder
}

// NewPlayer creates a player writing to out
func NewPlayer(out output.Output) *Player {
	return &Player{output: out}
}

// Open prepares the decoder and device for the output stream
func (p *Player) Open(params audio.CodecParameters) error {
	decoder, err := decode.New(params)
	if err != nil {
		return fmt.Errorf("failed to create playback decoder: %w", err)
	}
	if err := p.output.Open(params.SampleRate, params.Channels); err != nil {
		decoder.Close()
		return fmt.Errorf("failed to open output: %w", err)
	}
	p.decoder = decoder
	return nil
}

// Play decodes a packet and writes its frames to the device
func (p *Player) Play(pkt audio.Packet) error {
	if p.decoder == nil {
		return fmt.Errorf("player not open")
	}
	if err := p.decoder.Push(pkt); err != nil {
		return fmt.Errorf("playback decode: %w", err)
	}
	for {
		frame, ok, err := p.decoder.Take()
		if err != nil {
			return fmt.Errorf("playback decode: %w", err)
		}
		if !ok {
			return nil
		}
		// Skip codec priming the same way the transcoder does
		if frame.PTS < 0 {
			continue
		}
		if err := p.output.Write(frame.Samples); err != nil {
			return fmt.Errorf("playback: %w", err)
		}
	}
}

// Close releases the decoder and device
func (p *Player) Close() error {
	if p.decoder != nil {
		p.decoder.Close()
		p.decoder = nil
	}
	return p.output.Close()
}
