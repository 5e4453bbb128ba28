// ABOUTME: Tests for Opus decoder
// ABOUTME: Tests Opus decoder creation, decoding and pre-skip handling
package decode

import (
	"testing"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

func opusParams(channels int) audio.CodecParameters {
	return audio.CodecParameters{
		Codec:      audio.CodecOpus,
		SampleRate: 48000,
		Channels:   channels,
		BitDepth:   16,
	}
}

// encodeOpusSilence produces one 20ms Opus packet of silence.
func encodeOpusSilence(t *testing.T, channels int) []byte {
	t.Helper()
	enc, err := opus.NewEncoder(48000, channels, opus.AppAudio)
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	data := make([]byte, 4000)
	n, err := enc.Encode(make([]int16, 960*channels), data)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	return data[:n]
}

func TestNewOpus(t *testing.T) {
	decoder, err := NewOpus(opusParams(2))
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}
}

func TestNewOpus_InvalidCodec(t *testing.T) {
	params := opusParams(2)
	params.Codec = audio.CodecPCM

	decoder, err := NewOpus(params)
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}

	if decoder != nil {
		t.Fatal("expected decoder to be nil for invalid codec")
	}

	expectedError := "invalid codec for Opus decoder: pcm"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestNewOpus_MonoChannel(t *testing.T) {
	decoder, err := NewOpus(opusParams(1))
	if err != nil {
		t.Fatalf("failed to create mono decoder: %v", err)
	}

	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}
}

func TestNewOpus_InvalidSampleRate(t *testing.T) {
	params := opusParams(2)
	params.SampleRate = 44100 // not an Opus decode rate

	decoder, err := NewOpus(params)
	if err == nil {
		t.Fatal("expected error for 44100 Hz")
	}
	if decoder != nil {
		t.Fatal("if error is returned, decoder must be nil")
	}
}

func TestNewOpus_BadCodecHeader(t *testing.T) {
	params := opusParams(2)
	params.CodecHeader = []byte("not an opus head")

	if _, err := NewOpus(params); err == nil {
		t.Fatal("expected error for malformed OpusHead")
	}
}

func TestOpusDecode(t *testing.T) {
	decoder, err := NewOpus(opusParams(2))
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	pkt := audio.Packet{
		Data:     encodeOpusSilence(t, 2),
		PTS:      960,
		TimeBase: audio.Rational{Num: 1, Den: 48000},
	}
	if err := decoder.Push(pkt); err != nil {
		t.Fatalf("push failed: %v", err)
	}

	frame, ok, err := decoder.Take()
	if err != nil || !ok {
		t.Fatalf("expected a frame, got ok=%v err=%v", ok, err)
	}
	if frame.NumSamples() != 960 {
		t.Errorf("expected 960 samples, got %d", frame.NumSamples())
	}
	if frame.PTS != 960 {
		t.Errorf("expected PTS 960, got %d", frame.PTS)
	}
}

func TestOpusDecode_PreSkipShiftsTimeline(t *testing.T) {
	params := opusParams(2)
	params.CodecHeader = audio.OpusHead{Channels: 2, PreSkip: audio.OpusPreSkip, InputRate: 48000}.Marshal()

	decoder, err := NewOpus(params)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	data := encodeOpusSilence(t, 2)
	for i := int64(0); i < 2; i++ {
		pkt := audio.Packet{Data: data, PTS: i * 960, TimeBase: audio.Rational{Num: 1, Den: 48000}}
		if err := decoder.Push(pkt); err != nil {
			t.Fatalf("push failed: %v", err)
		}
	}

	first, _, _ := decoder.Take()
	second, _, _ := decoder.Take()
	if first.PTS != -audio.OpusPreSkip {
		t.Errorf("expected first PTS %d, got %d", -audio.OpusPreSkip, first.PTS)
	}
	if second.PTS != 960-audio.OpusPreSkip {
		t.Errorf("expected second PTS %d, got %d", 960-audio.OpusPreSkip, second.PTS)
	}
}

func TestOpusDecode_Garbage(t *testing.T) {
	decoder, err := NewOpus(opusParams(2))
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if err := decoder.Push(audio.Packet{Data: nil}); err == nil {
		t.Fatal("expected error for empty opus packet")
	}
}

func TestOpusClose(t *testing.T) {
	decoder, err := NewOpus(opusParams(2))
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	err = decoder.Close()
	if err != nil {
		t.Errorf("expected Close to succeed, got error: %v", err)
	}
}
