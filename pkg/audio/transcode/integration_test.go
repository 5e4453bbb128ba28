// ABOUTME: End-to-end transcoder tests with the real codec engines
// ABOUTME: Covers PCM identity, rate conversion and Opus/FLAC round trips
package transcode

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
	"github.com/Sendspin/sendspin-transcode/pkg/audio/decode"
)

func pcmParams(rate, channels int) audio.CodecParameters {
	return audio.CodecParameters{
		Codec:      audio.CodecPCM,
		SampleRate: rate,
		Channels:   channels,
		BitDepth:   16,
	}
}

// sinePackets returns 16-bit stereo PCM packets of a 440Hz tone.
func sinePackets(rate, perPacket, count int) []audio.Packet {
	packets := make([]audio.Packet, count)
	for p := range packets {
		data := make([]byte, perPacket*4)
		for i := 0; i < perPacket; i++ {
			n := p*perPacket + i
			v := int16(8000 * math.Sin(2*math.Pi*440*float64(n)/float64(rate)))
			binary.LittleEndian.PutUint16(data[i*4:], uint16(v))
			binary.LittleEndian.PutUint16(data[i*4+2:], uint16(v))
		}
		packets[p] = audio.Packet{
			Data:     data,
			PTS:      int64(p * perPacket),
			DTS:      int64(p * perPacket),
			TimeBase: audio.Rational{Num: 1, Den: rate},
		}
	}
	return packets
}

func run(t *testing.T, tr *Transcoder, packets []audio.Packet) []audio.Packet {
	t.Helper()
	var out []audio.Packet
	for _, pkt := range packets {
		require.NoError(t, tr.Push(pkt))
		out = append(out, takeAll(tr)...)
	}
	require.NoError(t, tr.Flush())
	out = append(out, takeAll(tr)...)
	return out
}

func assertMonotonic(t *testing.T, packets []audio.Packet) {
	t.Helper()
	require.NotEmpty(t, packets)
	assert.Equal(t, int64(0), packets[0].PTS)
	for i := 1; i < len(packets); i++ {
		assert.GreaterOrEqual(t, packets[i].PTS, packets[i-1].PTS, "packet %d", i)
	}
}

func TestPCMIdentity(t *testing.T) {
	tr, err := New(pcmParams(48000, 2), pcmParams(48000, 2))
	require.NoError(t, err)
	defer tr.Close()

	// 10 x 1152 = 11520 samples -> 12 frames of 960
	out := run(t, tr, sinePackets(48000, 1152, 10))
	require.Len(t, out, 12)
	assertMonotonic(t, out)

	total := 0
	for i, pkt := range out {
		assert.Equal(t, int64(i*20000), pkt.PTS)
		total += len(pkt.Data) / 4
	}
	assert.Equal(t, 11520, total)
	assert.Equal(t, uint64(11520), tr.OutputSamples())
}

func TestPCMIdentityPartialFinalFrame(t *testing.T) {
	tr, err := New(pcmParams(48000, 2), pcmParams(48000, 2))
	require.NoError(t, err)
	defer tr.Close()

	out := run(t, tr, sinePackets(48000, 1000, 3))
	require.Len(t, out, 4) // ceil(3000 / 960)
	assert.Equal(t, 120*4, len(out[3].Data))
}

func TestRateConversionStartsAtZero(t *testing.T) {
	tr, err := New(pcmParams(44100, 2), pcmParams(48000, 2))
	require.NoError(t, err)
	defer tr.Close()

	var first *audio.Packet
	for _, pkt := range sinePackets(44100, 1024, 5) {
		require.NoError(t, tr.Push(pkt))
		if p, ok := tr.Take(); ok && first == nil {
			first = &p
		}
		takeAll(tr)
	}
	require.NotNil(t, first)
	assert.Equal(t, int64(0), first.PTS)
	assert.Equal(t, audio.Microseconds, first.TimeBase)
}

func TestDownmixAndRateConversion(t *testing.T) {
	output := audio.CodecParameters{Codec: audio.CodecPCM, SampleRate: 16000, Channels: 1, BitDepth: 16}
	tr, err := New(pcmParams(48000, 2), output)
	require.NoError(t, err)
	defer tr.Close()

	out := run(t, tr, sinePackets(48000, 960, 50))
	assertMonotonic(t, out)

	total := 0
	for _, pkt := range out {
		total += len(pkt.Data) / 2
	}
	// one second of input
	assert.InDelta(t, 16000, total, 500)
}

func TestPCMToOpus(t *testing.T) {
	output := audio.CodecParameters{Codec: audio.CodecOpus, SampleRate: 48000, Channels: 2, Bitrate: 64000}
	tr, err := New(pcmParams(48000, 2), output)
	require.NoError(t, err)
	defer tr.Close()

	params := tr.CodecParameters()
	head, err := audio.ParseOpusHead(params.CodecHeader)
	require.NoError(t, err)
	assert.Equal(t, audio.OpusPreSkip, head.PreSkip)

	out := run(t, tr, sinePackets(48000, 960, 10))
	assertMonotonic(t, out)
	// ten frames plus look-ahead padding
	assert.GreaterOrEqual(t, len(out), 11)
	for i, pkt := range out {
		assert.Equal(t, int64(i*20000), pkt.PTS)
	}
}

func TestOpusToPCMDropsPreSkip(t *testing.T) {
	opusParams := audio.CodecParameters{Codec: audio.CodecOpus, SampleRate: 48000, Channels: 2}
	enc, err := New(pcmParams(48000, 2), opusParams)
	require.NoError(t, err)
	defer enc.Close()
	encoded := run(t, enc, sinePackets(48000, 960, 10))

	// Packets in their own 48k time base so the decoder applies pre-skip
	opusParams = enc.CodecParameters()
	for i := range encoded {
		encoded[i] = encoded[i].WithPTS(int64(i * 960)).WithTimeBase(audio.Rational{Num: 1, Den: 48000})
	}

	dec, err := New(opusParams, pcmParams(48000, 2))
	require.NoError(t, err)
	defer dec.Close()

	out := run(t, dec, encoded)
	assertMonotonic(t, out)

	total := 0
	for _, pkt := range out {
		total += len(pkt.Data) / 4
	}
	// The first decoded frame starts at -312 and is dropped whole
	assert.Equal(t, (len(encoded)-1)*960, total)
}

func TestPCMToFLACRoundTrip(t *testing.T) {
	output := audio.CodecParameters{Codec: audio.CodecFLAC, SampleRate: 48000, Channels: 2, BitDepth: 16}
	tr, err := New(pcmParams(48000, 2), output)
	require.NoError(t, err)
	defer tr.Close()

	input := sinePackets(48000, 1000, 10)
	out := run(t, tr, input)
	require.Len(t, out, 3) // 10000 samples in blocks of 4096

	dec, err := decode.New(tr.CodecParameters())
	require.NoError(t, err)

	var samples []int32
	for _, pkt := range out {
		require.NoError(t, dec.Push(pkt))
		for {
			f, ok, err := dec.Take()
			require.NoError(t, err)
			if !ok {
				break
			}
			samples = append(samples, f.Samples...)
		}
	}
	require.Len(t, samples, 10000*2)

	var want []int32
	for _, pkt := range input {
		for i := 0; i < len(pkt.Data); i += 2 {
			want = append(want, audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(pkt.Data[i:]))))
		}
	}
	assert.Equal(t, want, samples)
}

func TestNewRejectsUnsupported(t *testing.T) {
	_, err := New(audio.CodecParameters{Codec: "mp3", SampleRate: 44100, Channels: 2}, pcmParams(48000, 2))
	assert.ErrorIs(t, err, audio.ErrUnsupported)
	assert.Contains(t, err.Error(), "decoder")

	_, err = New(pcmParams(48000, 2), audio.CodecParameters{Codec: "aac", SampleRate: 48000, Channels: 2})
	assert.ErrorIs(t, err, audio.ErrUnsupported)
	assert.Contains(t, err.Error(), "encoder")

	_, err = New(pcmParams(48000, 6), pcmParams(48000, 2))
	assert.ErrorIs(t, err, audio.ErrUnsupported)
	assert.Contains(t, err.Error(), "resampler")
}

// splitPackets returns 16-bit stereo PCM packets with left at +level and
// right at -level.
func splitPackets(rate, perPacket, count int, level int16) []audio.Packet {
	packets := make([]audio.Packet, count)
	for p := range packets {
		data := make([]byte, perPacket*4)
		for i := 0; i < perPacket; i++ {
			binary.LittleEndian.PutUint16(data[i*4:], uint16(level))
			binary.LittleEndian.PutUint16(data[i*4+2:], uint16(-level))
		}
		packets[p] = audio.Packet{
			Data:     data,
			PTS:      int64(p * perPacket),
			TimeBase: audio.Rational{Num: 1, Den: rate},
		}
	}
	return packets
}

func TestRateConversionKeepsChannelsApart(t *testing.T) {
	const level = 8000

	tr, err := New(pcmParams(44100, 2), pcmParams(48000, 2))
	require.NoError(t, err)
	defer tr.Close()

	out := run(t, tr, splitPackets(44100, 1024, 20, level))
	require.Greater(t, len(out), 4)
	assertMonotonic(t, out)

	for i, pkt := range out {
		require.Zero(t, len(pkt.Data)%4, "packet %d splits a stereo sample", i)
	}

	mid := out[len(out)/2].Data
	for i := 0; i < len(mid); i += 4 {
		left := int16(binary.LittleEndian.Uint16(mid[i:]))
		right := int16(binary.LittleEndian.Uint16(mid[i+2:]))
		assert.InDelta(t, level, left, level/100, "left sample %d", i/4)
		assert.InDelta(t, -level, right, level/100, "right sample %d", i/4)
	}
}
